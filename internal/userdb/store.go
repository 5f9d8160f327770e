package userdb

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"matbot/internal/chat"
	"matbot/internal/logging"
)

// UserRecord is one user's persisted state
type UserRecord struct {
	Credential string                    `json:"credential"`
	Settings   map[string]string         `json:"settings"`
	Sessions   map[string][]chat.Message `json:"sessions"`
}

// Store is the JSON-backed credential and profile database. The file
// maps usernames to records and is rewritten in full on every change.
type Store struct {
	path   string
	logger *logging.Logger

	mu           sync.Mutex
	users        map[string]UserRecord
	lastSavedSum [sha256.Size]byte
}

// Open loads the database at path, creating an empty store if the file
// does not exist. A file that exists but cannot be parsed is a fatal
// condition; it is never overwritten or reset.
func Open(path string, logger *logging.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		users:  make(map[string]UserRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithContext("path", path).Info("user database not found, starting empty")
			return s, nil
		}
		return nil, fmt.Errorf("failed to read user database %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	s.lastSavedSum = sha256.Sum256(data)

	logger.WithFields(map[string]interface{}{
		"path":       path,
		"user_count": len(s.users),
	}).Info("user database loaded")
	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Register creates a new user with a hashed credential and default
// profile: light theme and one empty session.
func (s *Store) Register(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUsernameTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.users[username] = UserRecord{
		Credential: hash,
		Settings:   map[string]string{"theme": "light"},
		Sessions:   map[string][]chat.Message{chat.DefaultSessionName: {}},
	}

	s.logger.WithContext("username", username).Info("user registered")
	return s.saveLocked()
}

// Authenticate verifies a username and password pair. Unknown usernames
// and wrong passwords both return ErrInvalidCredentials.
func (s *Store) Authenticate(username, password string) error {
	s.mu.Lock()
	rec, exists := s.users[username]
	s.mu.Unlock()

	if !exists {
		// Burn a comparison so unknown usernames take about as long
		// as wrong passwords
		checkPasswordHash(password, "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
		return ErrInvalidCredentials
	}
	if !checkPasswordHash(password, rec.Credential) {
		return ErrInvalidCredentials
	}
	return nil
}

// Snapshot returns a deep copy of the user's record
func (s *Store) Snapshot(username string) (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return UserRecord{}, false
	}
	return copyRecord(rec), true
}

// Has reports whether a user exists
func (s *Store) Has(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.users[username]
	return exists
}

// Len returns the number of registered users
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// UpdateSessions replaces the user's session map and persists
func (s *Store) UpdateSessions(username string, sessions map[string][]chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return ErrUnknownUser
	}

	copied := make(map[string][]chat.Message, len(sessions))
	for name, log := range sessions {
		copied[name] = append([]chat.Message(nil), log...)
	}
	rec.Sessions = copied
	s.users[username] = rec

	return s.saveLocked()
}

// UpdateSetting sets one profile setting and persists
func (s *Store) UpdateSetting(username, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return ErrUnknownUser
	}

	settings := make(map[string]string, len(rec.Settings)+1)
	for k, v := range rec.Settings {
		settings[k] = v
	}
	settings[key] = value
	rec.Settings = settings
	s.users[username] = rec

	return s.saveLocked()
}

// Reload re-reads the database file, replacing in-memory state. Used
// when the file changes on disk outside this process. Returns whether
// state was replaced; a write this store made itself is recognized by
// content hash and skipped. A read or parse failure leaves the current
// state in place.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to re-read user database: %w", err)
	}

	sum := sha256.Sum256(data)
	if sum == s.lastSavedSum {
		return false, nil
	}

	users := make(map[string]UserRecord)
	if err := json.Unmarshal(data, &users); err != nil {
		s.logger.WithContext("error", err.Error()).Warn("ignoring unparseable database change")
		return false, &CorruptError{Path: s.path, Err: err}
	}

	s.users = users
	s.lastSavedSum = sum
	s.logger.WithContext("user_count", len(users)).Info("user database reloaded from disk")
	return true, nil
}

// saveLocked writes the full database atomically: marshal, write to a
// temp file in the same directory, then rename over the original.
// Caller holds the mutex. On failure in-memory state is kept and a
// WriteError is returned.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".userdb-*.tmp")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: s.path, Err: err}
	}

	s.lastSavedSum = sha256.Sum256(data)
	return nil
}

func copyRecord(rec UserRecord) UserRecord {
	out := UserRecord{
		Credential: rec.Credential,
		Settings:   make(map[string]string, len(rec.Settings)),
		Sessions:   make(map[string][]chat.Message, len(rec.Sessions)),
	}
	for k, v := range rec.Settings {
		out.Settings[k] = v
	}
	for name, log := range rec.Sessions {
		out.Sessions[name] = append([]chat.Message(nil), log...)
	}
	return out
}

package userdb

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"matbot/internal/chat"
	"matbot/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("test", logging.ERROR, io.Discard)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_data.json")
	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpenMissingFile(t *testing.T) {
	s := openTestStore(t)
	if s.Len() != 0 {
		t.Errorf("missing file should start empty, got %d users", s.Len())
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	original := []byte("{not valid json")
	if err := os.WriteFile(path, original, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Open(path, testLogger())
	if err == nil {
		t.Fatal("Open() should fail for a corrupt file")
	}
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Errorf("error = %v, want CorruptError", err)
	}

	// The corrupt file must be left intact
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("ReadFile() error = %v", readErr)
	}
	if string(data) != string(original) {
		t.Error("Open must never modify a corrupt database file")
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := openTestStore(t)

	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := s.Authenticate("alice", "secret123"); err != nil {
		t.Errorf("Authenticate() with correct password error = %v", err)
	}
	if err := s.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if err := s.Authenticate("nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := openTestStore(t)

	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register("alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Register() duplicate error = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterDefaults(t *testing.T) {
	s := openTestStore(t)

	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	rec, ok := s.Snapshot("alice")
	if !ok {
		t.Fatal("Snapshot() should find the new user")
	}
	if rec.Settings["theme"] != "light" {
		t.Errorf("default theme = %q, want %q", rec.Settings["theme"], "light")
	}
	log, ok := rec.Sessions[chat.DefaultSessionName]
	if !ok {
		t.Fatalf("new user should have session %q", chat.DefaultSessionName)
	}
	if len(log) != 0 {
		t.Errorf("default session should be empty, has %d messages", len(log))
	}
	if rec.Credential == "secret123" {
		t.Error("credential must be stored hashed, not in plain text")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	msg := chat.NewMessage(chat.RoleUser, "how do I plot?", time.Now())
	sessions := map[string][]chat.Message{
		"Chat 1": {msg},
		"Chat 2": {},
	}
	if err := s.UpdateSessions("alice", sessions); err != nil {
		t.Fatalf("UpdateSessions() error = %v", err)
	}
	if err := s.UpdateSetting("alice", "theme", "dark"); err != nil {
		t.Fatalf("UpdateSetting() error = %v", err)
	}

	// A fresh store reads back the same state
	s2, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	rec, ok := s2.Snapshot("alice")
	if !ok {
		t.Fatal("reopened store should contain alice")
	}
	if rec.Settings["theme"] != "dark" {
		t.Errorf("theme after reopen = %q, want %q", rec.Settings["theme"], "dark")
	}
	if len(rec.Sessions) != 2 {
		t.Fatalf("session count after reopen = %d, want 2", len(rec.Sessions))
	}
	got := rec.Sessions["Chat 1"]
	if len(got) != 1 || got[0].Content != "how do I plot?" || got[0].Role != chat.RoleUser {
		t.Errorf("messages did not round trip: %+v", got)
	}
	if err := s2.Authenticate("alice", "secret123"); err != nil {
		t.Errorf("Authenticate() after reopen error = %v", err)
	}
}

func TestPersistedLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Top level keyed by username, record fields as lowercase keys
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("persisted file is not a username-keyed object: %v", err)
	}
	rec, ok := raw["alice"]
	if !ok {
		t.Fatal("persisted file missing user entry")
	}
	for _, field := range []string{"credential", "settings", "sessions"} {
		if _, ok := rec[field]; !ok {
			t.Errorf("persisted record missing field %q", field)
		}
	}
}

func TestSaveFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("database file mode = %o, want 0600", perm)
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpdateSetting("ghost", "theme", "dark"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("UpdateSetting() error = %v, want ErrUnknownUser", err)
	}
	if err := s.UpdateSessions("ghost", nil); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("UpdateSessions() error = %v, want ErrUnknownUser", err)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := openTestStore(t)
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	rec, _ := s.Snapshot("alice")
	rec.Settings["theme"] = "dark"
	rec.Sessions["Injected"] = []chat.Message{}

	fresh, _ := s.Snapshot("alice")
	if fresh.Settings["theme"] != "light" {
		t.Error("mutating a snapshot must not affect the store")
	}
	if _, ok := fresh.Sessions["Injected"]; ok {
		t.Error("mutating a snapshot's sessions must not affect the store")
	}
}

func TestReloadExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Simulate an external edit adding a user
	rec, _ := s.Snapshot("alice")
	external := map[string]UserRecord{
		"alice": rec,
		"bob": {
			Credential: "hash",
			Settings:   map[string]string{"theme": "dark"},
			Sessions:   map[string][]chat.Message{"Chat 1": {}},
		},
	}
	data, _ := json.MarshalIndent(external, "", "  ")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	changed, err := s.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !changed {
		t.Error("Reload() should report a change for an external edit")
	}
	if !s.Has("bob") {
		t.Error("externally added user should be visible after Reload")
	}
}

func TestReloadSkipsOwnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	changed, err := s.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if changed {
		t.Error("Reload() must not report a change for the store's own write")
	}
}

func TestReloadCorruptKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Register("alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	changed, err := s.Reload()
	if err == nil {
		t.Error("Reload() should fail for a corrupt file")
	}
	if changed {
		t.Error("Reload() must not report a change on parse failure")
	}
	if !s.Has("alice") {
		t.Error("in-memory state must survive a failed reload")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("secret123")
	if err != nil {
		t.Fatalf("hashPassword() error = %v", err)
	}
	if hash == "secret123" {
		t.Error("hash should differ from the password")
	}
	if !checkPasswordHash("secret123", hash) {
		t.Error("checkPasswordHash should accept the original password")
	}
	if checkPasswordHash("wrong", hash) {
		t.Error("checkPasswordHash should reject a wrong password")
	}
}

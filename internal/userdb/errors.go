package userdb

import (
	"errors"
	"fmt"
)

var (
	// ErrUsernameTaken is returned by Register when the username exists
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// username or a wrong password. The two cases are not
	// distinguishable from the outside.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnknownUser is returned by update operations for a username
	// that has no record
	ErrUnknownUser = errors.New("unknown user")
)

// CorruptError indicates the database file exists but cannot be parsed.
// The file is left untouched so an operator can inspect or restore it.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("user database %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// WriteError indicates a failed persist. In-memory state is kept, so
// callers can surface a warning and keep serving.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write user database %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

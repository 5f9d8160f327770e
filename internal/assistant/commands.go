package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matbot/internal/chat"
	"matbot/internal/theme"
)

// Command errors
var (
	// ErrEmptyMessage marks a submit whose content was blank after
	// trimming; the caller treats it as a no-op
	ErrEmptyMessage = errors.New("message is empty")

	// ErrUnknownTheme is returned for a theme name that is not built in
	ErrUnknownTheme = errors.New("unknown theme")

	// ErrMissingCredentials is returned when username or password is blank
	ErrMissingCredentials = errors.New("username and password are required")
)

// Result carries the outcome of a command back to the transport layer
type Result struct {
	// Warning is a non-fatal problem the UI should surface, such as a
	// failed persist after a successful in-memory change
	Warning string

	// Session is the session the command affected or selected
	Session string

	// Reply is the assistant message produced by SubmitMessage
	Reply *chat.Message
}

// Command is one state transition of an interaction
type Command interface {
	apply(ctx context.Context, it *Interaction) (Result, error)
}

// Login authenticates against the stored credentials and replaces the
// guest scope with the user's stored scope.
type Login struct {
	Username string
	Password string
}

func (c Login) apply(ctx context.Context, it *Interaction) (Result, error) {
	if c.Username == "" || c.Password == "" {
		return Result{}, ErrMissingCredentials
	}

	if err := it.store.Authenticate(c.Username, c.Password); err != nil {
		it.logger.WithContext("username", c.Username).Info("login rejected")
		return Result{}, err
	}

	it.adoptUser(c.Username)
	it.record(ctx, "login", "")
	it.notify(Event{Type: "login"})
	it.logger.WithContext("username", c.Username).Info("user logged in")
	return Result{Session: it.active}, nil
}

// Signup registers a new account and logs it in
type Signup struct {
	Username string
	Password string
}

func (c Signup) apply(ctx context.Context, it *Interaction) (Result, error) {
	if c.Username == "" || c.Password == "" {
		return Result{}, ErrMissingCredentials
	}

	if err := it.store.Register(c.Username, c.Password); err != nil {
		return Result{}, err
	}

	it.adoptUser(c.Username)
	it.record(ctx, "signup", "account created")
	it.notify(Event{Type: "login"})
	it.logger.WithContext("username", c.Username).Info("user signed up")
	return Result{Session: it.active}, nil
}

// Logout discards the current scope and starts a fresh guest scope
type Logout struct{}

func (c Logout) apply(ctx context.Context, it *Interaction) (Result, error) {
	if it.loggedIn {
		it.record(ctx, "logout", "")
		it.logger.WithContext("username", it.username).Info("user logged out")
	}
	it.resetToGuest()
	it.notify(Event{Type: "logout"})
	return Result{Session: it.active}, nil
}

// SubmitMessage appends the user's message to the active session, asks
// the responder for a reply, appends that too, and persists
type SubmitMessage struct {
	Content string
}

func (c SubmitMessage) apply(ctx context.Context, it *Interaction) (Result, error) {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return Result{}, ErrEmptyMessage
	}

	it.active = it.registry.Repair(it.active)

	if _, err := it.registry.Append(it.active, chat.RoleUser, content); err != nil {
		return Result{}, err
	}

	replyText := it.responder.Respond(ctx, content)
	reply, err := it.registry.Append(it.active, chat.RoleAssistant, replyText)
	if err != nil {
		return Result{}, err
	}

	warning := it.persist()
	it.record(ctx, "message", fmt.Sprintf("session %s", it.active))
	it.notify(Event{Type: "message", Session: it.active})
	return Result{Warning: warning, Session: it.active, Reply: &reply}, nil
}

// CreateSession adds a new empty session and makes it active
type CreateSession struct{}

func (c CreateSession) apply(ctx context.Context, it *Interaction) (Result, error) {
	name := it.registry.Create()
	it.active = name

	warning := it.persist()
	it.record(ctx, "session_create", name)
	it.notify(Event{Type: "sessions", Session: name})
	it.logger.WithContext("session", name).Debug("session created")
	return Result{Warning: warning, Session: name}, nil
}

// DeleteSession removes a named session. Deleting the last session
// fails; deleting the active one selects the first remaining.
type DeleteSession struct {
	Name string
}

func (c DeleteSession) apply(ctx context.Context, it *Interaction) (Result, error) {
	if err := it.registry.Delete(c.Name); err != nil {
		return Result{}, err
	}
	if it.active == c.Name {
		it.active = it.registry.First()
	}

	warning := it.persist()
	it.record(ctx, "session_delete", c.Name)
	it.notify(Event{Type: "sessions", Session: it.active})
	it.logger.WithContext("session", c.Name).Debug("session deleted")
	return Result{Warning: warning, Session: it.active}, nil
}

// SelectSession switches the active session
type SelectSession struct {
	Name string
}

func (c SelectSession) apply(ctx context.Context, it *Interaction) (Result, error) {
	if !it.registry.Has(c.Name) {
		return Result{}, chat.ErrNotFound
	}
	it.active = c.Name
	return Result{Session: c.Name}, nil
}

// ChangeTheme switches the UI theme. For authenticated users the choice
// is persisted; for guests it lasts only as long as the interaction.
type ChangeTheme struct {
	Mode string
}

func (c ChangeTheme) apply(ctx context.Context, it *Interaction) (Result, error) {
	if !theme.Valid(c.Mode) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTheme, c.Mode)
	}
	it.theme = c.Mode

	var warning string
	if it.loggedIn {
		if err := it.store.UpdateSetting(it.username, "theme", c.Mode); err != nil {
			it.logger.WithContext("error", err.Error()).Error("failed to persist theme")
			warning = "Your theme choice could not be saved to disk."
		}
	}
	it.notify(Event{Type: "theme"})
	return Result{Warning: warning}, nil
}

package assistant

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"matbot/internal/chat"
	"matbot/internal/logging"
	"matbot/internal/theme"
	"matbot/internal/userdb"
)

// UserStore is the credential and profile storage the assistant needs
type UserStore interface {
	Register(username, password string) error
	Authenticate(username, password string) error
	Snapshot(username string) (userdb.UserRecord, bool)
	UpdateSessions(username string, sessions map[string][]chat.Message) error
	UpdateSetting(username, key, value string) error
}

// Responder produces a reply for every prompt
type Responder interface {
	Respond(ctx context.Context, prompt string) string
}

// Recorder receives activity events. Recording failures are logged and
// never block the interaction.
type Recorder interface {
	Record(ctx context.Context, operation, username, details string) error
}

// Event describes a state change other connections may want to render
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
}

// Notifier publishes events to connected clients
type Notifier interface {
	Notify(event Event)
}

// Interaction is the explicit per-connection context: identity, theme,
// and the session registry for the current scope. Nothing about a
// conversation lives in globals; every operation goes through an
// Interaction. The mutex makes each dispatched command one
// uninterruptible unit for this connection.
type Interaction struct {
	ID string

	store     UserStore
	responder Responder
	recorder  Recorder
	notifier  Notifier
	logger    *logging.Logger

	mu       sync.Mutex
	loggedIn bool
	username string
	theme    string
	registry *chat.Registry
	active   string
}

// NewInteraction creates a guest-scoped interaction with one default
// session and the default theme
func NewInteraction(store UserStore, responder Responder, recorder Recorder, notifier Notifier, logger *logging.Logger) *Interaction {
	id := uuid.NewString()
	return &Interaction{
		ID:        id,
		store:     store,
		responder: responder,
		recorder:  recorder,
		notifier:  notifier,
		logger:    logger.WithContext("interaction_id", id),
		theme:     theme.Default,
		registry:  chat.NewRegistry(),
		active:    chat.DefaultSessionName,
	}
}

// Dispatch runs one command under the interaction's lock
func (it *Interaction) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return cmd.apply(ctx, it)
}

// View is a read-only copy of the interaction's visible state
type View struct {
	LoggedIn bool
	Username string
	Theme    string
	Active   string
	Sessions []string
	Messages []chat.Message
}

// Snapshot returns the state the UI renders from. The active session is
// repaired first so the view never points at a missing session.
func (it *Interaction) Snapshot() View {
	it.mu.Lock()
	defer it.mu.Unlock()

	it.active = it.registry.Repair(it.active)
	return View{
		LoggedIn: it.loggedIn,
		Username: it.username,
		Theme:    it.theme,
		Active:   it.active,
		Sessions: it.registry.Names(),
		Messages: it.registry.Messages(it.active),
	}
}

// record logs an activity event, swallowing failures
func (it *Interaction) record(ctx context.Context, operation, details string) {
	if it.recorder == nil {
		return
	}
	if err := it.recorder.Record(ctx, operation, it.username, details); err != nil {
		it.logger.WithContext("error", err.Error()).Warn("failed to record activity")
	}
}

// notify publishes an event if a notifier is wired
func (it *Interaction) notify(event Event) {
	if it.notifier != nil {
		it.notifier.Notify(event)
	}
}

// persist writes the registry back for an authenticated user. A failed
// write keeps in-memory state and returns a warning for the UI; guests
// have nothing to persist.
func (it *Interaction) persist() string {
	if !it.loggedIn {
		return ""
	}
	if err := it.store.UpdateSessions(it.username, it.registry.Map()); err != nil {
		it.logger.WithContext("error", err.Error()).Error("failed to persist sessions")
		return "Your changes could not be saved to disk. They remain available in this session."
	}
	return ""
}

// adoptUser replaces the current scope with the stored scope of an
// authenticated user. Guest sessions are discarded.
func (it *Interaction) adoptUser(username string) {
	rec, ok := it.store.Snapshot(username)
	if !ok {
		// Authenticated a moment ago; treat a vanished record as empty
		it.logger.WithContext("username", username).Warn("user record missing after authentication")
		rec = userdb.UserRecord{}
	}

	it.loggedIn = true
	it.username = username
	it.theme = theme.Normalize(rec.Settings["theme"])
	it.registry = chat.FromMap(rec.Sessions)
	it.active = it.registry.First()
}

// resetToGuest establishes a fresh guest scope
func (it *Interaction) resetToGuest() {
	it.loggedIn = false
	it.username = ""
	it.theme = theme.Default
	it.registry = chat.NewRegistry()
	it.active = chat.DefaultSessionName
}

package chat

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultSessionName is the session installed when a registry is created
// or repaired from an empty state
const DefaultSessionName = "Chat 1"

// Common errors
var (
	// ErrLastSession is returned when deleting the only remaining session
	ErrLastSession = errors.New("cannot delete the only remaining chat")

	// ErrNotFound is returned when a session name is not in the registry
	ErrNotFound = errors.New("chat session not found")
)

// Registry owns the named chat sessions of one scope (an authenticated
// user, or the transient guest). Session names are generated from a
// monotonic counter so that delete-then-create can never collide with a
// live name. Iteration order is the order sessions were created in, which
// makes "first remaining session" deterministic.
//
// Registry is not safe for concurrent use; callers serialize access
// (each interaction runs one command at a time).
type Registry struct {
	names   []string
	logs    map[string][]Message
	counter int
	now     func() time.Time
}

// NewRegistry creates a registry holding the single default session
func NewRegistry() *Registry {
	r := &Registry{
		logs: make(map[string][]Message),
		now:  time.Now,
	}
	r.install(DefaultSessionName)
	r.counter = 1
	return r
}

// FromMap builds a registry from a persisted session mapping. Names are
// ordered by their "Chat <n>" number (unnumbered names sort after, in
// lexical order) and the counter is re-seeded above the highest number
// seen, so newly created sessions never reuse a stored name. An empty or
// nil mapping yields a registry with the default session.
func FromMap(sessions map[string][]Message) *Registry {
	r := &Registry{
		logs: make(map[string][]Message, len(sessions)),
		now:  time.Now,
	}

	for name, log := range sessions {
		msgs := make([]Message, len(log))
		copy(msgs, log)
		r.names = append(r.names, name)
		r.logs[name] = msgs

		if n, ok := sessionNumber(name); ok && n > r.counter {
			r.counter = n
		}
	}

	sort.Slice(r.names, func(i, j int) bool {
		ni, iok := sessionNumber(r.names[i])
		nj, jok := sessionNumber(r.names[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return r.names[i] < r.names[j]
		}
	})

	if len(r.names) == 0 {
		r.install(DefaultSessionName)
		r.counter = 1
	}

	return r
}

// Map returns a copy of the registry's sessions in persistable form
func (r *Registry) Map() map[string][]Message {
	out := make(map[string][]Message, len(r.logs))
	for name, log := range r.logs {
		msgs := make([]Message, len(log))
		copy(msgs, log)
		out[name] = msgs
	}
	return out
}

// Names returns the session names in creation order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has reports whether a session exists
func (r *Registry) Has(name string) bool {
	_, ok := r.logs[name]
	return ok
}

// Len returns the number of sessions
func (r *Registry) Len() int {
	return len(r.names)
}

// First returns the first session name in iteration order
func (r *Registry) First() string {
	if len(r.names) == 0 {
		// Repair guarantees this cannot be observed by callers
		return DefaultSessionName
	}
	return r.names[0]
}

// Create installs a new empty session and returns its generated name
func (r *Registry) Create() string {
	r.counter++
	name := fmt.Sprintf("Chat %d", r.counter)
	// Counter monotonicity makes collisions impossible for generated
	// names, but stored registries may carry arbitrary ones
	for r.Has(name) {
		r.counter++
		name = fmt.Sprintf("Chat %d", r.counter)
	}
	r.install(name)
	return name
}

// Delete removes a session. The last remaining session cannot be deleted.
func (r *Registry) Delete(name string) error {
	if !r.Has(name) {
		return ErrNotFound
	}
	if len(r.names) == 1 {
		return ErrLastSession
	}

	delete(r.logs, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return nil
}

// Append adds a message with a fresh timestamp to a session's log and
// returns the stored message
func (r *Registry) Append(name string, role Role, content string) (Message, error) {
	if !r.Has(name) {
		return Message{}, ErrNotFound
	}
	msg := NewMessage(role, content, r.now())
	r.logs[name] = append(r.logs[name], msg)
	return msg, nil
}

// Messages returns a copy of a session's message log
func (r *Registry) Messages(name string) []Message {
	log, ok := r.logs[name]
	if !ok {
		return nil
	}
	out := make([]Message, len(log))
	copy(out, log)
	return out
}

// Repair returns a usable active session name. If the registry is empty
// it installs the default session; if active does not name an existing
// session the first session is returned instead. Called defensively
// before every read of the active session so externally edited state
// cannot leave the scope unusable.
func (r *Registry) Repair(active string) string {
	if len(r.names) == 0 {
		r.install(DefaultSessionName)
		if r.counter < 1 {
			r.counter = 1
		}
	}
	if r.Has(active) {
		return active
	}
	return r.names[0]
}

func (r *Registry) install(name string) {
	r.names = append(r.names, name)
	r.logs[name] = []Message{}
}

// sessionNumber extracts n from a generated "Chat <n>" name
func sessionNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "Chat ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

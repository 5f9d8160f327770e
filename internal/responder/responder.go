package responder

import (
	"context"
	"strings"
	"time"

	"matbot/internal/logging"
)

const fallbackReply = "I'm your MATLAB Troubleshooter assistant. How can I help you today? " +
	"Ask me about plotting, solving linear equations, matrix indexing, loops, functions, or debugging."

// Responder turns a user prompt into a reply. It is a total function:
// every prompt gets an answer, unmatched ones the generic fallback.
type Responder struct {
	rules      []Rule
	thinkDelay time.Duration
	logger     *logging.Logger
}

// Option configures a Responder
type Option func(*Responder)

// WithThinkDelay sets the simulated processing delay before each reply
func WithThinkDelay(d time.Duration) Option {
	return func(r *Responder) {
		r.thinkDelay = d
	}
}

// WithRulesFile prepends rules loaded from a JSON file. A missing or
// unreadable file fails New.
func WithRulesFile(path string) (Option, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return func(r *Responder) {
		r.rules = append(rules, r.rules...)
	}, nil
}

// New creates a responder with the built-in rule set
func New(logger *logging.Logger, opts ...Option) *Responder {
	r := &Responder{
		rules:      defaultRules(),
		thinkDelay: time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond produces a reply for the prompt. The call blocks for the
// configured think delay or until ctx is cancelled, whichever comes
// first; cancellation still returns a reply.
func (r *Responder) Respond(ctx context.Context, prompt string) string {
	if r.thinkDelay > 0 {
		select {
		case <-time.After(r.thinkDelay):
		case <-ctx.Done():
		}
	}

	lowered := strings.ToLower(prompt)
	for _, rule := range r.rules {
		if rule.matches(lowered) {
			r.logger.WithContext("keywords", strings.Join(rule.Keywords, ",")).Debug("rule matched")
			return rule.Reply
		}
	}

	r.logger.Debug("no rule matched, using fallback")
	return fallbackReply
}

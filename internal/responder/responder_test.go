package responder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"matbot/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("test", logging.ERROR, io.Discard)
}

func newTestResponder(opts ...Option) *Responder {
	opts = append([]Option{WithThinkDelay(0)}, opts...)
	return New(testLogger(), opts...)
}

func TestRespondMatchesTopic(t *testing.T) {
	r := newTestResponder()

	tests := []struct {
		name     string
		prompt   string
		fragment string
	}{
		{"plotting", "How do I plot a sine wave?", "plot(x, y)"},
		{"plotting case insensitive", "PLOT my data please", "plot(x, y)"},
		{"linear system", "how to solve Ax=b", "backslash"},
		{"indexing", "index exceeds matrix dimensions", "starts at 1"},
		{"loops", "my for loop is broken", "Preallocate"},
		{"debugging", "I get an error when running my script", "dbstop"},
		{"simulink", "how do I run a simulink model", "block diagrams"},
		{"vectorization", "why is my code so slow", "vectorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := r.Respond(context.Background(), tt.prompt)
			if !strings.Contains(reply, tt.fragment) {
				t.Errorf("Respond(%q) = %q, want reply containing %q", tt.prompt, reply, tt.fragment)
			}
		})
	}
}

func TestRespondFallback(t *testing.T) {
	r := newTestResponder()

	reply := r.Respond(context.Background(), "what's the weather like?")
	if !strings.Contains(reply, "How can I help you today?") {
		t.Errorf("unmatched prompt should get the fallback, got %q", reply)
	}
}

func TestRespondNeverEmpty(t *testing.T) {
	r := newTestResponder()

	for _, prompt := range []string{"", "   ", "xyzzy", "plot"} {
		if reply := r.Respond(context.Background(), prompt); reply == "" {
			t.Errorf("Respond(%q) returned an empty reply", prompt)
		}
	}
}

func TestRespondFirstMatchWins(t *testing.T) {
	r := newTestResponder()

	// "plot" and "loop" both appear; the plot rule is listed first
	reply := r.Respond(context.Background(), "plot inside a for loop")
	if !strings.Contains(reply, "plot(x, y)") {
		t.Errorf("first listed rule should win, got %q", reply)
	}
}

func TestRespondThinkDelay(t *testing.T) {
	r := New(testLogger(), WithThinkDelay(50*time.Millisecond))

	start := time.Now()
	r.Respond(context.Background(), "plot")
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Respond returned after %v, want at least 50ms", elapsed)
	}
}

func TestRespondCancelledContext(t *testing.T) {
	r := New(testLogger(), WithThinkDelay(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	reply := r.Respond(ctx, "plot")
	if time.Since(start) > time.Second {
		t.Error("cancelled context should cut the think delay short")
	}
	if reply == "" {
		t.Error("cancellation must still produce a reply")
	}
}

func TestRulesFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	content := `[{"keywords": ["plot"], "reply": "custom plotting answer"}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	opt, err := WithRulesFile(path)
	if err != nil {
		t.Fatalf("WithRulesFile() error = %v", err)
	}
	r := newTestResponder(opt)

	reply := r.Respond(context.Background(), "how do I plot?")
	if reply != "custom plotting answer" {
		t.Errorf("file rules should take precedence, got %q", reply)
	}

	// Built-ins still answer everything else
	reply = r.Respond(context.Background(), "debug my error")
	if !strings.Contains(reply, "dbstop") {
		t.Errorf("built-in rules should still apply, got %q", reply)
	}
}

func TestRulesFileErrors(t *testing.T) {
	if _, err := WithRulesFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("WithRulesFile should fail for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "rules.json")
	os.WriteFile(bad, []byte("not json"), 0644)
	if _, err := WithRulesFile(bad); err == nil {
		t.Error("WithRulesFile should fail for invalid JSON")
	}
}

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SourceLocation captures where a log call originated
type SourceLocation struct {
	File     string
	Line     int
	Function string
}

// Entry is a structured log record
type Entry struct {
	Timestamp time.Time
	Level     Level
	Component string
	Source    SourceLocation
	Message   string
	Context   map[string]interface{}
}

// Formatter renders entries as single text lines
type Formatter struct{}

// NewFormatter creates a formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders an entry as
// [YYYY-MM-DD HH:MM:SS] LEVEL [component] file.go:line function message key=value
func (f *Formatter) Format(e Entry) string {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(e.Timestamp.Format("2006-01-02 15:04:05"))
	sb.WriteString("] ")
	sb.WriteString(e.Level.String())
	sb.WriteString(" [")
	sb.WriteString(e.Component)
	sb.WriteString("] ")

	fmt.Fprintf(&sb, "%s:%d %s ", e.Source.File, e.Source.Line, e.Source.Function)

	sb.WriteString(sanitize(e.Message))

	// Context fields in stable order
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.Context[k])
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// sanitize replaces control characters (except newline and tab) with
// spaces to prevent log injection
func sanitize(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r < 0x20:
			sb.WriteRune(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

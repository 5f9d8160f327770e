package logging

import (
	"io"
	"strings"
)

// MultiWriter routes formatted log lines between console and debug file
// by level: WARN/ERROR go to both, DEBUG/INFO to the file only. With
// debug logging disabled everything goes to the console.
type MultiWriter struct {
	console      io.Writer
	file         io.Writer
	debugEnabled bool
}

// NewMultiWriter creates a level router over the two writers
func NewMultiWriter(console, file io.Writer, debugEnabled bool) *MultiWriter {
	return &MultiWriter{
		console:      console,
		file:         file,
		debugEnabled: debugEnabled,
	}
}

// Write implements io.Writer
func (m *MultiWriter) Write(p []byte) (int, error) {
	if !m.debugEnabled {
		return m.console.Write(p)
	}

	n, err := m.file.Write(p)
	if err != nil {
		return n, err
	}

	switch extractLevel(p) {
	case "WARN", "ERROR":
		if cn, cerr := m.console.Write(p); cerr != nil {
			return cn, cerr
		}
	}
	return n, nil
}

// extractLevel parses the level token from a formatted line:
// [YYYY-MM-DD HH:MM:SS] LEVEL [component] ...
func extractLevel(p []byte) string {
	msg := string(p)

	end := strings.Index(msg, "] ")
	if end == -1 {
		return ""
	}
	rest := msg[end+2:]

	space := strings.Index(rest, " ")
	if space == -1 {
		return ""
	}
	return rest[:space]
}

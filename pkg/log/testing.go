package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
)

// TestLogger captures log output as zerolog JSON lines in memory.
//
// It is the provider's own zerolog logger writing into a locked buffer, so
// records look exactly like production output. Loggers derived through With
// write to the same buffer, which makes it safe to hand to the forest's
// concurrent tree builders.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	forest := ensemble.NewRandomForestRegressor(ensemble.WithLogger(logger))
//	...
//	if !logger.ContainsMessage("Training completed") { ... }
type TestLogger struct {
	*zerologLogger
	out *lockedBuffer
}

// lockedBuffer serializes zerolog's per-event writes with readers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger returns a logger recording records at level or above, and the
// buffer holding the JSON lines.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	out := &lockedBuffer{buf: &bytes.Buffer{}}
	provider := NewZerologProvider(out, level)
	return &TestLogger{
		zerologLogger: &zerologLogger{provider: provider},
		out:           out,
	}, out.buf
}

// GetLogEntries decodes every captured line.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.out.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured record has the given message.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry["message"] == message {
			return true
		}
	}
	return false
}

// ContainsField reports whether any captured record has key set to value.
// Numbers decode as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	t.out.buf.Reset()
}

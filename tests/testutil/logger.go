package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/secretconf/internal/logging"
)

// TestLogger captures the output of a *logging.Logger for assertions.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	logger.Info("Fetched %s", logging.Secret("password123"))
//	logger.AssertRedacted(t, "password123")
type TestLogger struct {
	*logging.Logger
	out *syncBuffer
}

// NewTestLogger creates a logger without colors or debug output.
func NewTestLogger(t *testing.T) *TestLogger {
	return NewTestLoggerWithDebug(t, false)
}

// NewTestLoggerWithDebug creates a logger that also captures debug messages
// when debug is true.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	out := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithOutput(out, debug, true),
		out:    out,
	}
}

// GetOutput returns everything logged so far.
func (l *TestLogger) GetOutput() string {
	return l.out.String()
}

// Clear discards the captured output.
func (l *TestLogger) Clear() {
	l.out.Reset()
}

// AssertContains asserts that the log output contains substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does not contain substr.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Expected log output to NOT contain %q", substr)
}

// AssertRedacted asserts that secretValue never appears in the log output.
func (l *TestLogger) AssertRedacted(t *testing.T, secretValue string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), secretValue,
		"Secret value %q should be redacted, but appears in logs", secretValue)
}

// AssertLogCount asserts that level appears count times.
//
// Level markers:
//   - info: "✓"
//   - warn: "⚠"
//   - error: "✗"
//   - debug: "[DEBUG]"
func (l *TestLogger) AssertLogCount(t *testing.T, level string, count int) {
	t.Helper()

	var marker string
	switch level {
	case "info":
		marker = "✓"
	case "warn":
		marker = "⚠"
	case "error":
		marker = "✗"
	case "debug":
		marker = "[DEBUG]"
	default:
		t.Fatalf("Unknown log level: %s", level)
	}

	actual := strings.Count(l.GetOutput(), marker)
	assert.Equal(t, count, actual, "Expected %d %s log messages, got %d", count, level, actual)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

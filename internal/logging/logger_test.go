package logging_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/secretconf/internal/logging"
)

// captureStderr captures stderr output for testing
func captureStderr(fn func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithOutput(&buf, true, true)

	logger.Info("loaded %d sources", 3)
	logger.Warn("source %q is optional", "prod/app")
	logger.Error("build failed")
	logger.Debug("fetching %s", "prod/app")

	assert.Equal(t,
		"✓ loaded 3 sources\n"+
			"⚠ source \"prod/app\" is optional\n"+
			"✗ build failed\n"+
			"[DEBUG] fetching prod/app\n",
		buf.String())
}

func TestLoggerDebugMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithOutput(&buf, false, true)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, logger.DebugEnabled())
	assert.True(t, logging.NewWithOutput(&buf, true, true).DebugEnabled())
}

func TestLoggerColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logging.NewWithOutput(&buf, false, false).Info("ok")
	assert.Equal(t, "\033[32m✓\033[0m ok\n", buf.String())
}

func TestLoggerWritesToStderr(t *testing.T) {
	// Cannot use t.Parallel() because captureStderr() modifies global os.Stderr
	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Info("hello")
	})
	assert.Equal(t, "✓ hello\n", output)
}

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	secretValue := "super-secret-password-12345"
	secret := logging.Secret(secretValue)

	tests := []struct {
		name   string
		format string
	}{
		{name: "%s verb", format: "value: %s"},
		{name: "%v verb", format: "value: %v"},
		{name: "%#v verb", format: "value: %#v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logging.NewWithOutput(&buf, true, true).Debug(tt.format, secret)
			assert.Contains(t, buf.String(), "[REDACTED]")
			assert.NotContains(t, buf.String(), secretValue)
		})
	}

	assert.Equal(t, "[REDACTED]", fmt.Sprint(logging.Secret("")))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		secrets  []string
		expected string
	}{
		{
			name:     "single secret",
			input:    "database:password = hunter22",
			secrets:  []string{"hunter22"},
			expected: "database:password = [REDACTED]",
		},
		{
			name:     "multiple secrets",
			input:    "user=admin token=abcd1234",
			secrets:  []string{"admin", "abcd1234"},
			expected: "user=[REDACTED] token=[REDACTED]",
		},
		{
			name:     "short values are kept",
			input:    "port=443",
			secrets:  []string{"443"},
			expected: "port=443",
		},
		{
			name:     "empty secrets list",
			input:    "nothing to hide",
			secrets:  nil,
			expected: "nothing to hide",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logging.Redact(tt.input, tt.secrets))
		})
	}
}

package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides terminal logging with redaction support
type Logger struct {
	entry *logrus.Logger
	debug bool
}

// New creates a new logger writing to stderr
func New(debug, noColor bool) *Logger {
	return NewWithOutput(stderr{}, debug, noColor)
}

// NewWithOutput creates a new logger writing to out
func NewWithOutput(out io.Writer, debug, noColor bool) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&symbolFormatter{noColor: noColor})
	l.SetLevel(logrus.InfoLevel)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return &Logger{entry: l, debug: debug}
}

// DebugEnabled reports whether debug messages are written
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// stderr resolves os.Stderr on every write so redirection after
// construction is honoured.
type stderr struct{}

func (stderr) Write(p []byte) (int, error) {
	return os.Stderr.Write(p)
}

type symbol struct {
	text  string
	color string
}

var symbols = map[logrus.Level]symbol{
	logrus.DebugLevel: {text: "[DEBUG]", color: "\033[36m"},
	logrus.InfoLevel:  {text: "✓", color: "\033[32m"},
	logrus.WarnLevel:  {text: "⚠", color: "\033[33m"},
	logrus.ErrorLevel: {text: "✗", color: "\033[31m"},
}

// symbolFormatter renders entries as "<symbol> <message>".
type symbolFormatter struct {
	noColor bool
}

func (f *symbolFormatter) Format(e *logrus.Entry) ([]byte, error) {
	s, ok := symbols[e.Level]
	if !ok {
		s = symbols[logrus.ErrorLevel]
	}

	var buf bytes.Buffer
	if f.noColor {
		buf.WriteString(s.text)
	} else {
		fmt.Fprintf(&buf, "%s%s\033[0m", s.color, s.text)
	}
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED]
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}

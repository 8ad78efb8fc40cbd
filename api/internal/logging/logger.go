package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes leveled lines with trailing key=value pairs.
type Logger struct {
	prefix string
	logger *log.Logger
}

// New creates a logger writing to stdout with the given prefix.
func New(prefix string) *Logger {
	return NewWithWriter(prefix, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(prefix string, w io.Writer) *Logger {
	return &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("nop", io.Discard)
}

// With returns a child logger whose prefix is extended by name.
func (l *Logger) With(name string) *Logger {
	if l == nil {
		return Nop()
	}
	return NewWithWriter(l.prefix+"."+name, l.logger.Writer())
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	if l == nil {
		return
	}
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}

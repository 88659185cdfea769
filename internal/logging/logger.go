// Package logging writes one JSON object per line through the standard logger.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

type Fields map[string]any

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "", 0)
	now    = time.Now
)

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func output(level, msg string, fields Fields) {
	entry := make(Fields, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["ts"] = now().UTC().Format(time.RFC3339)
	entry["msg"] = msg

	mu.Lock()
	defer mu.Unlock()
	b, err := json.Marshal(entry)
	if err != nil {
		// fallback to plain logging
		logger.Printf("%s: %s (%v)", level, msg, fields)
		return
	}
	logger.Println(string(b))
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output("info", msg, fields)
}

// Warn logs a recoverable problem.
func Warn(msg string, fields Fields) {
	output("warn", msg, fields)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	entry := make(Fields, len(fields)+1)
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	output("error", msg, entry)
}

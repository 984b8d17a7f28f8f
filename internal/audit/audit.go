// Package audit provides append-only structured logging for keychain operations.
//
// Every primitive issued against the secure item store (add, update, delete,
// query) can be recorded to an audit log, by default ~/.settingskit/audit.log,
// as newline-delimited JSON. Payloads are never written.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionItemAdd    Action = "item_add"
	ActionItemUpdate Action = "item_update"
	ActionItemDelete Action = "item_delete"
	ActionItemQuery  Action = "item_query"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp   time.Time `json:"ts"`
	Action      Action    `json:"action"`
	Service     string    `json:"service,omitempty"`
	AccessGroup string    `json:"access_group,omitempty"`
	Account     string    `json:"account,omitempty"` // empty for scope-wide queries
	Actor       string    `json:"actor,omitempty"`   // "cli", "test"
	Status      int32     `json:"status"`
	Error       string    `json:"error,omitempty"`
}

// Logger writes audit entries to an append-only file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f}, nil
}

// Log writes an audit entry.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

package safety

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNilWriter is returned by Log when the logger has no backing writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// AuditEntry records one MCP tool invocation: which tool ran, with what
// parameters, what it reported back, and how long it took. Duration is
// serialized in nanoseconds.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger appends entries to an NDJSON stream, one line per tool
// call. It is safe for concurrent use.
type AuditLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAuditLogger wraps w in an AuditLogger. A nil writer yields a nil
// logger, which Log treats as disabled.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{w: w}
}

// Log writes entry as a single JSON line. Calling Log on a nil logger
// returns ErrNilWriter, so call sites can hand out a nil logger when
// auditing is off and ignore the result uniformly.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil || l.w == nil {
		return ErrNilWriter
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(line)
	return err
}

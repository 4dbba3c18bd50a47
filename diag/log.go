// Package diag records reportable events in an append-only log.
//
// A Log is the explicit home of what would otherwise be process-wide
// state: create one per process with Default (or NewLog for isolated
// use, e.g. one per test), inject it into the components that report,
// and poll it with Snapshot or Last. Entries are never removed one by
// one; Clear empties the log without resetting ids.
package diag

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Severity defines the importance of an entry.
type Severity uint32

const (
	// SevNotice is for entries that do not indicate a failure.
	SevNotice Severity = iota
	// SevError marks a failure.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNotice:
		return "NOTICE"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// lastID is shared by every Log so ids stay unique across the process,
// across logs and across Clear.
var lastID atomic.Uint64

// Entry is one reported event. Two entries are the same entry when
// their ids match, whatever their content.
type Entry struct {
	id          uint64
	description string
	severity    atomic.Uint32
}

// ID returns the process-unique id.
func (e *Entry) ID() uint64 {
	return e.id
}

// Description returns the reported text.
func (e *Entry) Description() string {
	return e.description
}

// Severity returns the current severity.
func (e *Entry) Severity() Severity {
	return Severity(e.severity.Load())
}

// IsError reports whether the entry has error severity.
func (e *Entry) IsError() bool {
	return e.Severity() == SevError
}

// PromoteToError marks the entry as an error in place. Promoting an
// error entry again has no effect.
func (e *Entry) PromoteToError() *Entry {
	e.severity.Store(uint32(SevError))
	return e
}

// Equal reports whether both entries carry the same id.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.id == other.id
}

func (e *Entry) String() string {
	return e.Severity().String() + ": " + e.description
}

// Log is an ordered, append-only collection of entries. It is safe for
// concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []*Entry
	logger  *zap.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithLogger mirrors every report to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLog creates an empty log.
func NewLog(opts ...Option) *Log {
	l := &Log{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLog  *Log
)

// Default returns the process-wide log, creating it on first use.
func Default() *Log {
	defaultOnce.Do(func() {
		defaultLog = NewLog()
	})
	return defaultLog
}

// Report creates an entry with the next id and appends it. The id is
// drawn under the log's lock, so ids increase in append order.
func (l *Log) Report(description string, isError bool) *Entry {
	e := &Entry{description: description}
	if isError {
		e.severity.Store(uint32(SevError))
	}

	l.mu.Lock()
	e.id = lastID.Add(1)
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if isError {
		l.logger.Error("diagnostic reported", zap.Uint64("id", e.id), zap.String("description", description))
	} else {
		l.logger.Info("diagnostic reported", zap.Uint64("id", e.id), zap.String("description", description))
	}
	return e
}

// Snapshot returns the entries in append order. The slice is a copy;
// the entries are shared, so a promotion made through one is seen by
// later snapshots.
func (l *Log) Snapshot() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent entry, or nil if the log is empty.
func (l *Log) Last() *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[len(l.entries)-1]
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// HasErrors returns true if any entry has error severity.
func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.IsError() {
			return true
		}
	}
	return false
}

// Clear empties the log. Ids are not reused afterwards.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

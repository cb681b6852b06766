// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/govportal/authgate/internal/logging"
)

const (
	auditLogName    = "audit.log"
	securityLogName = "security.log"
	counterFileName = "audit.seq"
)

// AlertFunc receives CRITICAL entries. The default implementation writes to
// stderr; deployments can plug in an external notifier.
type AlertFunc func(*Entry)

// Config holds configuration for the audit logger.
type Config struct {
	// Dir is the directory for audit.log, security.log, rotations, and the
	// sequence counter file.
	Dir string

	// MaxFileSize triggers rotation of audit.log when exceeded, in bytes.
	MaxFileSize int64

	// MaxRotations bounds retained rotated files; older ones are deleted.
	MaxRotations int

	// Alert is invoked synchronously for every CRITICAL entry.
	Alert AlertFunc

	// StoreCapacity bounds the in-memory query store (default: 10000).
	StoreCapacity int
}

// DefaultConfig returns sensible defaults rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:           dir,
		MaxFileSize:   10 << 20,
		MaxRotations:  5,
		Alert:         stderrAlert,
		StoreCapacity: 10000,
	}
}

// stderrAlert is the default CRITICAL alert path.
func stderrAlert(e *Entry) {
	fmt.Fprintf(os.Stderr, "AUDIT CRITICAL seq=%d event=%s ip=%s user=%s\n",
		e.Seq, e.Event, e.IP, e.Username)
}

// Logger records security-relevant decisions to an append-only JSONL file,
// duplicates HIGH/CRITICAL entries to a dedicated security log, and assigns
// each entry a restart-safe monotonic sequence number.
type Logger struct {
	mu      sync.Mutex
	config  *Config
	counter *SequenceCounter
	audit   *os.File
	secure  *os.File
	store   *MemoryStore
}

// NewLogger opens (creating if needed) the log files under config.Dir.
func NewLogger(config *Config) (*Logger, error) {
	if config == nil {
		return nil, fmt.Errorf("audit config is required")
	}
	if config.Alert == nil {
		config.Alert = stderrAlert
	}
	if config.StoreCapacity <= 0 {
		config.StoreCapacity = 10000
	}

	if err := os.MkdirAll(config.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit dir: %w", err)
	}

	counter, err := NewSequenceCounter(filepath.Join(config.Dir, counterFileName))
	if err != nil {
		return nil, err
	}

	auditFile, err := openAppend(filepath.Join(config.Dir, auditLogName))
	if err != nil {
		return nil, err
	}

	secureFile, err := openAppend(filepath.Join(config.Dir, securityLogName))
	if err != nil {
		auditFile.Close()
		return nil, err
	}

	return &Logger{
		config:  config,
		counter: counter,
		audit:   auditFile,
		secure:  secureFile,
		store:   NewMemoryStore(config.StoreCapacity),
	}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// Record assigns the next sequence number and writes the entry. The sequence
// number is persisted before the entry is written, so numbers never repeat
// across restarts. Returns the assigned number.
func (l *Logger) Record(event string, severity Severity, status Status, details map[string]interface{}, reqCtx *RequestContext) (int64, error) {
	seq, err := l.counter.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to advance audit sequence: %w", err)
	}

	entry := &Entry{
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		Event:     event,
		Severity:  severity,
		Status:    status,
		Details:   details,
	}
	if reqCtx != nil {
		entry.IP = reqCtx.IP
		entry.Username = reqCtx.Username
		entry.SessionID = reqCtx.SessionID
		entry.Method = reqCtx.Method
		entry.URL = reqCtx.URL
		entry.UserAgent = reqCtx.UserAgent
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return seq, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.audit.Write(line); err != nil {
		return seq, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if severity.AtLeast(SeverityHigh) {
		if _, err := l.secure.Write(line); err != nil {
			logging.Error().Err(err).Int64("seq", seq).Msg("Failed to duplicate entry to security log")
		}
	}

	if severity == SeverityCritical {
		l.config.Alert(entry)
	}

	l.store.Save(entry)
	recordMetric(entry)

	if err := l.rotateIfNeededLocked(); err != nil {
		logging.Error().Err(err).Msg("Audit log rotation failed")
	}

	return seq, nil
}

// RotateIfNeeded rotates audit.log when it exceeds the size ceiling. Safe to
// call from a periodic sweeper; overlapping calls are serialized.
func (l *Logger) RotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotateIfNeededLocked()
}

// rotateIfNeededLocked must be called with the mutex held.
func (l *Logger) rotateIfNeededLocked() error {
	info, err := l.audit.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat audit log: %w", err)
	}
	if info.Size() < l.config.MaxFileSize {
		return nil
	}

	if err := l.audit.Close(); err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}

	current := filepath.Join(l.config.Dir, auditLogName)
	rotated := filepath.Join(l.config.Dir,
		fmt.Sprintf("audit-%s.log", time.Now().UTC().Format("20060102-150405.000000000")))
	if err := os.Rename(current, rotated); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	fresh, err := openAppend(current)
	if err != nil {
		return err
	}
	l.audit = fresh

	return l.pruneRotationsLocked()
}

// pruneRotationsLocked deletes rotated files beyond MaxRotations, oldest first.
func (l *Logger) pruneRotationsLocked() error {
	pattern := filepath.Join(l.config.Dir, "audit-*.log")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to list rotated audit logs: %w", err)
	}

	if len(matches) <= l.config.MaxRotations {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(matches)
	for _, stale := range matches[:len(matches)-l.config.MaxRotations] {
		if err := os.Remove(stale); err != nil {
			logging.Warn().Err(err).Str("file", stale).Msg("Failed to prune rotated audit log")
		}
	}

	return nil
}

// Query retrieves entries from the in-memory store matching the filter.
func (l *Logger) Query(filter QueryFilter) []Entry {
	return l.store.Query(filter)
}

// Count returns the number of stored entries matching the filter.
func (l *Logger) Count(filter QueryFilter) int {
	return l.store.Count(filter)
}

// Stats aggregates stored entries for the admin dashboard.
func (l *Logger) Stats() Stats {
	return l.store.Stats()
}

// LastSeq returns the most recently issued sequence number.
func (l *Logger) LastSeq() int64 {
	return l.counter.Last()
}

// Close flushes and closes the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	if err := l.audit.Close(); err != nil {
		firstErr = err
	}
	if err := l.secure.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Package seenlog persists the first-seen time of calendar event ids in
// an append-only JSONL file. Synthetic calendar tasks carry no creation
// time of their own, so the log supplies a stable one across runs and
// keeps duplicate detection deterministic.
package seenlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	logFileMode = 0o600
	logDirMode  = 0o750
)

// Entry is one line of the log.
type Entry struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"first_seen"`
}

// Log is the loaded seen-log. The zero value is not usable; construct
// with Open or OpenReadOnly.
type Log struct {
	path     string
	seen     map[string]time.Time
	readOnly bool
}

// Open loads the log at path, creating its directory when missing. A
// missing file is an empty log.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirMode); err != nil {
		return nil, fmt.Errorf("creating seen-log directory: %w", err)
	}
	seen, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Log{path: path, seen: seen}, nil
}

// OpenReadOnly loads the log without ever writing to it. First-seen
// times for unknown ids are still answered, but not persisted. Used by
// dry runs.
func OpenReadOnly(path string) (*Log, error) {
	seen, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Log{path: path, seen: seen, readOnly: true}, nil
}

func load(path string) (map[string]time.Time, error) {
	seen := make(map[string]time.Time)

	f, err := os.Open(path) //nolint:gosec // path comes from trusted config
	if errors.Is(err, fs.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening seen-log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		// Damaged lines are skipped: the log is advisory and must
		// never block a sync.
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil || e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; !ok {
			seen[e.ID] = e.FirstSeen
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seen-log: %w", err)
	}
	return seen, nil
}

// FirstSeen returns when the id was first imported. Unknown ids are
// recorded with the given time and that time is returned. Append
// failures are silently discarded because the log must never fail a
// sync.
func (l *Log) FirstSeen(id string, now time.Time) time.Time {
	if at, ok := l.seen[id]; ok {
		return at
	}
	l.seen[id] = now
	if !l.readOnly {
		_ = l.append(Entry{ID: id, FirstSeen: now})
	}
	return now
}

func (l *Log) append(e Entry) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // path comes from trusted config
	if err != nil {
		return fmt.Errorf("opening seen-log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling seen-log entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing seen-log entry: %w", err)
	}
	return nil
}

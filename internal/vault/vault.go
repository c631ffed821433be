// Package vault reads and writes daily notes in an Obsidian-style
// directory tree. Notes are keyed by date: {root}/{year}/{month}/
// "{d.m.yyyy}, {weekday}.md", with the weekday in the configured
// language.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vkoski/daybook/internal/date"
)

const (
	noteFileMode = 0o600
	noteDirMode  = 0o750
)

// Vault is a note store rooted at a single directory.
type Vault struct {
	root     string
	weekdays []string // Monday first, lowercase
}

// New creates a vault over root. The weekday names are used in note
// file names; when the list is short the English name is used.
func New(root string, weekdays []string) *Vault {
	return &Vault{root: root, weekdays: weekdays}
}

// Root returns the vault's root directory.
func (v *Vault) Root() string { return v.root }

// NotePath returns the absolute path of the note for the given date.
// Day and month are unpadded in the file name but the month directory
// is zero-padded so directories list in calendar order.
func (v *Vault) NotePath(d date.Date) string {
	name := fmt.Sprintf("%d.%d.%d, %s.md", d.Day(), int(d.Month()), d.Year(), v.weekday(d))
	return filepath.Join(v.root,
		fmt.Sprintf("%d", d.Year()),
		fmt.Sprintf("%02d", int(d.Month())),
		name)
}

func (v *Vault) weekday(d date.Date) string {
	idx := (int(d.Weekday()) + 6) % 7
	if idx >= len(v.weekdays) {
		return strings.ToLower(d.Weekday().String())
	}
	return v.weekdays[idx]
}

// Read returns the note text for the date. A missing note is an empty
// string, not an error: the first sync of a day starts from nothing.
func (v *Vault) Read(d date.Date) (string, error) {
	data, err := os.ReadFile(v.NotePath(d)) //nolint:gosec // path derived from trusted vault root
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading note: %w", err)
	}
	return string(data), nil
}

// Write stores the note text for the date, creating the year and month
// directories on demand.
func (v *Vault) Write(d date.Date, text string) error {
	path := v.NotePath(d)
	if err := os.MkdirAll(filepath.Dir(path), noteDirMode); err != nil {
		return fmt.Errorf("creating note directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), noteFileMode); err != nil {
		return fmt.Errorf("writing note: %w", err)
	}
	return nil
}

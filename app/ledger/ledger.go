// Package ledger persists the ids of items that have been replied to.
//
// The file holds one id per line and is only ever appended to. One process owns
// the file at a time; concurrent writers from several processes are not supported
// and would need file locking or a log with compare-and-swap appends.
package ledger

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Ledger answers whether an item was already engaged.
type Ledger interface {
	Contains(itemID string) bool
}

type FileLedger struct {
	path string
	file *os.File
	ids  map[string]struct{}
	mu   sync.Mutex

	unterminated bool // file does not end in a newline
}

// Open loads the ledger at path. A missing file is an empty ledger and is created
// on first Add. A last line without a newline still counts as an id; the newline is
// written before the next append.
func Open(path string) (*FileLedger, error) {
	l := &FileLedger{
		path: path,
		ids:  make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Info("Engagement ledger not found, starting empty", "path", path)
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			l.ids[id] = struct{}{}
		}
	}

	l.unterminated = len(data) > 0 && !bytes.HasSuffix(data, []byte("\n"))

	slog.Debug("Engagement ledger loaded", "path", path, "entries", len(l.ids))

	return l, nil
}

func (l *FileLedger) Contains(itemID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[itemID]
	return ok
}

func (l *FileLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

// Add appends itemID and syncs it to disk before returning. Adding a known id is a no-op.
func (l *FileLedger) Add(itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || strings.ContainsAny(itemID, "\r\n") {
		return fmt.Errorf("invalid ledger id %q", itemID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[itemID]; ok {
		return nil
	}

	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open ledger %s: %w", l.path, err)
		}
		l.file = file
	}

	entry := itemID + "\n"
	if l.unterminated {
		entry = "\n" + entry
	}
	if _, err := io.WriteString(l.file, entry); err != nil {
		return fmt.Errorf("failed to append to ledger: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	l.ids[itemID] = struct{}{}
	l.unterminated = false

	return nil
}

func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

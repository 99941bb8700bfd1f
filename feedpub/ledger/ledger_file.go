package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/araddon/dateparse"
)

type FileEntry struct {
	PublishedTime string `json:"published_time"`
}

// Ledger kept in memory and persisted as a single JSON object on Save:
//
//	{"<url>": {"published_time": "<RFC3339>"}}
type FileLedger struct {
	Path    string
	Entries map[string]FileEntry

	lk sync.Mutex
}

var _ Ledger = (*FileLedger)(nil)

// Reads the ledger file at "p". A missing file yields an empty ledger.
func LoadFileLedger(p string) (*FileLedger, error) {
	l := &FileLedger{
		Path:    p,
		Entries: make(map[string]FileEntry),
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &l.Entries); err != nil {
		return nil, fmt.Errorf("parsing ledger file %s: %w", p, err)
	}
	return l, nil
}

func (l *FileLedger) Contains(ctx context.Context, key string) (bool, error) {
	l.lk.Lock()
	defer l.lk.Unlock()
	_, ok := l.Entries[key]
	return ok, nil
}

func (l *FileLedger) Record(ctx context.Context, key string, publishedAt time.Time) error {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.Entries[key] = FileEntry{PublishedTime: publishedAt.UTC().Format(time.RFC3339)}
	return nil
}

// Entries with an unparseable timestamp are pruned too.
func (l *FileLedger) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	l.lk.Lock()
	defer l.lk.Unlock()
	removed := 0
	for k, e := range l.Entries {
		// older files hold whatever format the feed used
		ts, err := dateparse.ParseAny(e.PublishedTime)
		if err != nil || ts.Before(cutoff) {
			delete(l.Entries, k)
			removed++
		}
	}
	return removed, nil
}

// Writes the ledger to a temporary file and renames it over the previous version.
func (l *FileLedger) Save(ctx context.Context) error {
	l.lk.Lock()
	raw, err := json.MarshalIndent(l.Entries, "", "  ")
	l.lk.Unlock()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.Path), ".ledger-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.Path)
}

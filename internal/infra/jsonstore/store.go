// Package jsonstore provides a JSON file-based implementation of HistoryRepository.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/runoshun/review-bridge/internal/domain"
	"golang.org/x/sys/unix"
)

// storeData represents the JSON file structure.
// Fields are ordered to minimize memory padding.
type storeData struct {
	Invocations map[string]*recordData `json:"invocations"`
	Meta        meta                   `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Version int `json:"version"`
}

// storeVersion is written to new store files.
const storeVersion = 1

// recordData is the JSON representation of an invocation record.
type recordData = domain.InvocationRecord

// Store implements domain.HistoryRepository using a JSON file.
type Store struct {
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Ensure Store implements HistoryRepository.
var _ domain.HistoryRepository = (*Store)(nil)

// Get retrieves a record by full ID or unique ID prefix.
func (s *Store) Get(id string) (*domain.InvocationRecord, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	var rec *domain.InvocationRecord
	err := s.withLock(func(data *storeData) error {
		if r, ok := data.Invocations[id]; ok {
			rec = r
			return nil
		}
		for key, r := range data.Invocations {
			if !strings.HasPrefix(key, id) {
				continue
			}
			if rec != nil {
				return fmt.Errorf("%w: %s", domain.ErrAmbiguousID, id)
			}
			rec = r
		}
		if rec == nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List retrieves records matching the filter, newest first.
func (s *Store) List(filter domain.HistoryFilter) ([]*domain.InvocationRecord, error) {
	var recs []*domain.InvocationRecord
	err := s.withLock(func(data *storeData) error {
		for _, r := range data.Invocations {
			if filter.State != "" && r.State != filter.State {
				continue
			}
			recs = append(recs, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(recs)
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}

// Save creates or updates a record.
func (s *Store) Save(rec *domain.InvocationRecord) error {
	if rec.ID == "" {
		return errors.New("save record: empty invocation ID")
	}
	return s.withLockWrite(func(data *storeData) error {
		cp := *rec
		data.Invocations[rec.ID] = &cp
		return nil
	})
}

// Prune deletes all but the newest keep records and returns the removed IDs.
func (s *Store) Prune(keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	var removed []string
	err := s.withLockWrite(func(data *storeData) error {
		if len(data.Invocations) <= keep {
			return nil
		}
		recs := make([]*domain.InvocationRecord, 0, len(data.Invocations))
		for _, r := range data.Invocations {
			recs = append(recs, r)
		}
		sortNewestFirst(recs)
		for _, r := range recs[keep:] {
			delete(data.Invocations, r.ID)
			removed = append(removed, r.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// sortNewestFirst orders records by start time descending, then ID for ties.
func sortNewestFirst(recs []*domain.InvocationRecord) {
	slices.SortFunc(recs, func(a, b *domain.InvocationRecord) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(unix.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(unix.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = unix.Flock(int(lock.Fd()), unix.LOCK_UN)
	_ = lock.Close()
}

// read loads the store file. A missing file reads as an empty store.
func (s *Store) read() (*storeData, error) {
	data := storeData{Meta: meta{Version: storeVersion}}

	content, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("parse store file: %w", err)
		}
	}

	if data.Invocations == nil {
		data.Invocations = make(map[string]*recordData)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

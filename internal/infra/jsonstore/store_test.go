package jsonstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "history.json"))
}

func newRecord(id string, startedAt time.Time, state domain.InvocationState) *domain.InvocationRecord {
	return &domain.InvocationRecord{
		ID:         id,
		Command:    "review",
		Executable: "python",
		Entry:      "../worker/review.py",
		File:       "/tmp/report.pdf",
		Model:      "gpt-4o",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
		State:      state,
		ArgCount:   3,
	}
}

func TestStore_EmptyWithoutFile(t *testing.T) {
	store := newTestStore(t)

	recs, err := store.List(domain.HistoryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("List() len = %d, want 0", len(recs))
	}

	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Errorf("store file should not be created by reads, stat err = %v", err)
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	rec := newRecord("0f8b2c1e-5d4a-4f3b-9c2d-1a2b3c4d5e6f", now, domain.StateFailed)
	rec.ErrorKind = domain.KindWorkerFailure
	rec.Message = "Worker script failed: bad key"
	rec.ExitCode = 1

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("ID = %q, want %q", got.ID, rec.ID)
	}
	if got.Message != rec.Message {
		t.Errorf("Message = %q, want %q", got.Message, rec.Message)
	}
	if got.ErrorKind != domain.KindWorkerFailure {
		t.Errorf("ErrorKind = %q, want %q", got.ErrorKind, domain.KindWorkerFailure)
	}
	if got.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", got.ExitCode)
	}
	if !got.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, now)
	}
	if got.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", got.Duration())
	}

	// Saving copies the record
	rec.Message = "changed"
	got, _ = store.Get(rec.ID)
	if got.Message != "Worker script failed: bad key" {
		t.Errorf("stored record changed through caller pointer: %q", got.Message)
	}
}

func TestStore_SaveUpdates(t *testing.T) {
	store := newTestStore(t)
	rec := newRecord("aaaa0000", time.Now(), domain.StateSucceeded)

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rec.OutputBytes = 42
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	recs, _ := store.List(domain.HistoryFilter{})
	if len(recs) != 1 {
		t.Fatalf("List() len = %d, want 1", len(recs))
	}
	if recs[0].OutputBytes != 42 {
		t.Errorf("OutputBytes = %d, want 42", recs[0].OutputBytes)
	}
}

func TestStore_SaveRejectsEmptyID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(&domain.InvocationRecord{}); err == nil {
		t.Error("Save() with empty ID should fail")
	}
}

func TestStore_GetByPrefix(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	for _, id := range []string{"abc12345-0000", "abc99999-0000", "def00000-0000"} {
		if err := store.Save(newRecord(id, now, domain.StateSucceeded)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := store.Get("def")
	if err != nil {
		t.Fatalf("Get(def) error = %v", err)
	}
	if got.ID != "def00000-0000" {
		t.Errorf("Get(def) = %q", got.ID)
	}

	if _, err := store.Get("abc"); !errors.Is(err, domain.ErrAmbiguousID) {
		t.Errorf("Get(abc) error = %v, want ErrAmbiguousID", err)
	}

	if _, err := store.Get("fff"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(fff) error = %v, want ErrNotFound", err)
	}

	if _, err := store.Get(""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	recs := []*domain.InvocationRecord{
		newRecord("a", base, domain.StateSucceeded),
		newRecord("b", base.Add(time.Minute), domain.StateFailed),
		newRecord("c", base.Add(2*time.Minute), domain.StateSucceeded),
		newRecord("d", base.Add(3*time.Minute), domain.StateCancelled),
	}
	for _, r := range recs {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.HistoryFilter
		want   []string
	}{
		{"all newest first", domain.HistoryFilter{}, []string{"d", "c", "b", "a"}},
		{"limit", domain.HistoryFilter{Limit: 2}, []string{"d", "c"}},
		{"state", domain.HistoryFilter{State: domain.StateSucceeded}, []string{"c", "a"}},
		{"state and limit", domain.HistoryFilter{State: domain.StateSucceeded, Limit: 1}, []string{"c"}},
		{"no match", domain.HistoryFilter{State: domain.StateSpawnError}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("List() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("%08x", i)
		if err := store.Save(newRecord(id, base.Add(time.Duration(i)*time.Minute), domain.StateSucceeded)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	removed, err := store.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if got := strings.Join(removed, ","); got != "00000002,00000001,00000000" {
		t.Errorf("Prune() removed = %v, want the three oldest", removed)
	}

	recs, _ := store.List(domain.HistoryFilter{})
	if len(recs) != 2 || recs[0].ID != "00000004" || recs[1].ID != "00000003" {
		t.Errorf("remaining records wrong: %v", recs)
	}

	removed, err = store.Prune(10)
	if err != nil || len(removed) != 0 {
		t.Errorf("Prune(10) = %v, %v; want none, nil", removed, err)
	}

	removed, err = store.Prune(-1)
	if err != nil || len(removed) != 2 {
		t.Errorf("Prune(-1) = %v, %v; want 2 IDs, nil", removed, err)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.List(domain.HistoryFilter{}); err == nil {
		t.Error("List() on corrupt file should fail")
	}
	if err := store.Save(newRecord("a", time.Now(), domain.StateSucceeded)); err == nil {
		t.Error("Save() on corrupt file should fail")
	}
}

func TestStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "history.json")
	store := New(path)

	if err := store.Save(newRecord("a", time.Now(), domain.StateSucceeded)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate Store values share only the lock file.
			if err := New(path).Save(newRecord(fmt.Sprintf("%08x", i), now, domain.StateSucceeded)); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	recs, err := New(path).List(domain.HistoryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 10 {
		t.Errorf("List() len = %d, want 10", len(recs))
	}
}

package web

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrResultNotFound = errors.New("result not found")

// Entry is one finished silhouette waiting to be downloaded.
type Entry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Store tracks finished results until the sweeper expires them.
type Store interface {
	Put(ctx context.Context, e Entry) error
	// Get returns ErrResultNotFound for unknown ids.
	Get(ctx context.Context, id string) (Entry, error)
	Delete(ctx context.Context, id string) error
	// Expired lists entries created strictly before the given time.
	Expired(ctx context.Context, before time.Time) ([]Entry, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrResultNotFound
	}
	return e, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Expired(_ context.Context, before time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of tracked results.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

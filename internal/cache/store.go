// Package cache keeps parsed documents in memory, keyed by the hash of the
// uploaded file, and evicts them once they have not been used for a while.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/definition"
)

// Entry is one parsed document and everything derived from it.
type Entry struct {
	ID        string
	Filename  string
	Version   string
	Sections  int
	Endpoints int

	Doc     *apidoc.Documentation
	Classes map[definition.PermissionLevel]*definition.ClassDefinition

	CreatedAt  time.Time
	AccessedAt time.Time
}

// Summary is a JSON-safe description of an entry.
type Summary struct {
	ID        string    `json:"doc_id"`
	Filename  string    `json:"filename,omitempty"`
	Version   string    `json:"version"`
	Sections  int       `json:"sections"`
	Endpoints int       `json:"endpoints"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *Entry) Summary() Summary {
	return Summary{
		ID:        e.ID,
		Filename:  e.Filename,
		Version:   e.Version,
		Sections:  e.Sections,
		Endpoints: e.Endpoints,
		CreatedAt: e.CreatedAt,
	}
}

// Store is a thread-safe in-memory document registry with TTL eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores e, replacing any entry with the same ID.
func (s *Store) Put(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.AccessedAt = now
	s.entries[e.ID] = e
}

// Get returns the entry for id, or nil, and marks it as used.
func (s *Store) Get(id string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	if e != nil {
		e.AccessedAt = s.now()
	}
	return e
}

// Delete removes the entry for id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// List returns summaries of all entries, newest first.
func (s *Store) List() []Summary {
	s.mu.Lock()
	out := make([]Summary, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Summary())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Cleanup removes expired entries and returns how many were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.AccessedAt) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

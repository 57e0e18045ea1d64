package offline

import (
	"context"
	"strings"
	"sync"
)

// Entry is one cached response.
type Entry struct {
	Status int               `json:"status"`
	Header map[string]string `json:"header,omitempty"`
	Body   []byte            `json:"body"`
}

// Store is a versioned response cache. Opening one version invalidates
// every other: a deploy that bumps the version starts from an empty cache
// and the old generation's entries are purged.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, e *Entry) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store, versioned by key prefix.
type MemoryStore struct {
	mu      sync.RWMutex
	version string
	entries map[string]*Entry
}

// NewMemoryStore opens the store for a cache version, dropping every entry
// belonging to any other version.
func NewMemoryStore(version string) *MemoryStore {
	return &MemoryStore{version: version, entries: make(map[string]*Entry)}
}

// OpenVersion switches the active version and purges all others.
func (s *MemoryStore) OpenVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version == s.version {
		return
	}
	prefix := s.version + "|"
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.version = version
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[s.version+"|"+key]
	return e, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.version+"|"+key] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, s.version+"|"+key)
	return nil
}

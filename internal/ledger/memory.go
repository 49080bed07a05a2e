package ledger

import (
	"context"
	"sync"
)

type entryKey struct {
	publisher Identity
	dataID    string
}

// MemoryStore keeps entries in process. It backs local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[entryKey]Entry
	order   []entryKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]Entry)}
}

func (s *MemoryStore) Put(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{publisher: entry.Publisher, dataID: entry.DataID}
	if existing, ok := s.entries[key]; ok {
		entry.Version = existing.Version + 1
	} else {
		entry.Version = 1
		s.order = append(s.order, key)
	}
	entry.Data = cloneBytes(entry.Data)
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Insert(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{publisher: entry.Publisher, dataID: entry.DataID}
	if _, ok := s.entries[key]; ok {
		return ErrExists
	}
	entry.Version = 1
	entry.Data = cloneBytes(entry.Data)
	s.entries[key] = entry
	s.order = append(s.order, key)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, publisher Identity, dataID string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryKey{publisher: publisher, dataID: dataID}]
	if !ok {
		return Entry{}, false, nil
	}
	entry.Data = cloneBytes(entry.Data)
	return entry, true, nil
}

// List returns entries in insertion order.
func (s *MemoryStore) List(ctx context.Context, publisher Identity, schemaID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, key := range s.order {
		if key.publisher != publisher {
			continue
		}
		entry := s.entries[key]
		if entry.SchemaID != schemaID {
			continue
		}
		entry.Data = cloneBytes(entry.Data)
		out = append(out, entry)
	}
	return out, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package catalog

import (
	"sort"
	"sync"
)

// MemoryBackend keeps the catalog in process memory. It is the default
// backend: nothing survives the process, which suits one-shot indexing runs.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
	nextID  uint
}

// NewMemoryBackend creates an empty in-memory catalog.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (b *MemoryBackend) Init() error { return nil }

func (b *MemoryBackend) Close() error { return nil }

func (b *MemoryBackend) Put(r *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.records[r.Path]; ok {
		r.ID = existing.ID
	} else {
		b.nextID++
		r.ID = b.nextID
	}
	b.records[r.Path] = *r
	return nil
}

func (b *MemoryBackend) Get(path string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (b *MemoryBackend) List() ([]Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Record, 0, len(b.records))
	for _, r := range b.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *MemoryBackend) Delete(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, path)
	return nil
}

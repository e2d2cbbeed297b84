package storage

import (
	"context"
	"sync"
)

// Bounds for the in-memory store: once the set exceeds maxRecords, only the
// newest trimTo records are kept.
const (
	maxRecords = 1000
	trimTo     = 500
)

type recordID struct {
	channelID int64
	messageID int
}

// MemoryRepository implements Repository as a bounded in-process set. It
// loses state on restart; meant for tests and low-stakes deployments.
type MemoryRepository struct {
	mu    sync.Mutex
	seen  map[recordID]struct{}
	order []recordID
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{seen: make(map[recordID]struct{})}
}

// Contains checks whether the forward record exists.
func (r *MemoryRepository) Contains(ctx context.Context, channelID int64, messageID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[recordID{channelID, messageID}]
	return ok, nil
}

// Insert records the pair, trimming the oldest records past the bound.
func (r *MemoryRepository) Insert(ctx context.Context, channelID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := recordID{channelID, messageID}
	if _, ok := r.seen[id]; ok {
		return nil
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)

	if len(r.order) > maxRecords {
		cut := len(r.order) - trimTo
		for _, old := range r.order[:cut] {
			delete(r.seen, old)
		}
		r.order = append(r.order[:0:0], r.order[cut:]...)
	}
	return nil
}

// Len reports the current number of records.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Close is a no-op for the in-memory store.
func (r *MemoryRepository) Close() error {
	return nil
}

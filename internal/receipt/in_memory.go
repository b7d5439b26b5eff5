package receipt

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// inMemory implements Store using a slice kept in insertion order.
type inMemory struct {
	mu       sync.RWMutex
	receipts []Receipt
	now      func() time.Time
}

// NewInMemoryStore creates a new instance of Store
func NewInMemoryStore() Store {
	return &inMemory{now: time.Now}
}

// Save stores a copy of r.
func (s *inMemory) Save(_ context.Context, r Receipt) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New()
	r.CreatedAt = s.now().UTC()
	r.Lines = slices.Clone(r.Lines)
	if r.Failure != nil {
		failure := *r.Failure
		r.Failure = &failure
	}
	s.receipts = append(s.receipts, r)

	saved := r
	return &saved, nil
}

// FindAll returns up to limit receipts, newest first, skipping offset.
func (s *inMemory) FindAll(_ context.Context, offset, limit int32) ([]Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Receipt, 0, min(int(limit), len(s.receipts)))
	for i := len(s.receipts) - 1 - int(offset); i >= 0 && len(list) < int(limit); i-- {
		list = append(list, s.receipts[i])
	}
	return list, nil
}

package store

import (
	"context"
	"sync"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
)

// MemoryStore is an in-memory implementation of the TicketStore interface
type MemoryStore struct {
	raw []byte
	mu  sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ ports.TicketStore = (*MemoryStore)(nil)

// Load parses the stored document so callers never share a *core.Ticket
func (s *MemoryStore) Load(ctx context.Context) (*core.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.raw == nil {
		return nil, core.ErrTicketNotFound
	}
	return core.ParseTicket(s.raw)
}

// Save keeps a copy of the raw ticket document
func (s *MemoryStore) Save(ctx context.Context, ticket *core.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = append([]byte(nil), ticket.Raw...)
	return nil
}

// Clear drops the cached ticket
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = nil
}

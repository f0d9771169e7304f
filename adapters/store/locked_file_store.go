package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
)

const lockRetryDelay = 50 * time.Millisecond

// LockedFileStore wraps FileStore with an advisory lock file (<path>.lock)
// so readers never observe a half-written ticket from another process.
type LockedFileStore struct {
	file *FileStore
	lock *flock.Flock
}

// NewLockedFileStore creates a process-coordinated file store
func NewLockedFileStore(path string) *LockedFileStore {
	return &LockedFileStore{
		file: NewFileStore(path),
		lock: flock.New(path + ".lock"),
	}
}

var _ ports.TicketStore = (*LockedFileStore)(nil)

// Load reads the ticket under a shared lock
func (s *LockedFileStore) Load(ctx context.Context) (*core.Ticket, error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire ticket read lock")
	}
	if !locked {
		return nil, errors.New("ticket read lock not acquired")
	}
	defer s.lock.Unlock()

	return s.file.Load(ctx)
}

// Save writes the ticket under an exclusive lock
func (s *LockedFileStore) Save(ctx context.Context, ticket *core.Ticket) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrap(err, "failed to acquire ticket write lock")
	}
	if !locked {
		return errors.New("ticket write lock not acquired")
	}
	defer s.lock.Unlock()

	return s.file.Save(ctx, ticket)
}

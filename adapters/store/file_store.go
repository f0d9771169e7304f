package store

import (
	"context"
	"os"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
)

// FileStore keeps the ticket as an XML file (the ta_file).
//
// Reads and writes are not coordinated: two processes renewing at the same
// time both write the file and the last writer wins. Use LockedFileStore
// when several processes share one ta_file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ ports.TicketStore = (*FileStore)(nil)

// Path returns the ticket file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the ticket file
func (s *FileStore) Load(ctx context.Context) (*core.Ticket, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, core.ErrTicketNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}
	return core.ParseTicket(raw)
}

// Save writes the ticket document verbatim
func (s *FileStore) Save(ctx context.Context, ticket *core.Ticket) error {
	if len(ticket.Raw) == 0 {
		return errors.Wrap(core.ErrInvalidTicket, "empty ticket document")
	}
	if err := os.WriteFile(s.path, ticket.Raw, 0o600); err != nil {
		return errors.Wrapf(err, "failed to create %s", s.path)
	}
	return nil
}

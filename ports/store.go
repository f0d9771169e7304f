package ports

import (
	"context"

	"github.com/layer-3/afip/core"
)

// TicketStore persists the current access ticket.
// Load returns core.ErrTicketNotFound when nothing is cached and an error
// wrapping core.ErrInvalidTicket when the cached document fails validation.
type TicketStore interface {
	Load(ctx context.Context) (*core.Ticket, error)
	Save(ctx context.Context, ticket *core.Ticket) error
}

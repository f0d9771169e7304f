package ports

import (
	"context"

	"github.com/layer-3/afip/core"
)

// EventPublisher notifies other instances that a new ticket was obtained
type EventPublisher interface {
	PublishTicketRenewed(ctx context.Context, ticket *core.Ticket) error
}

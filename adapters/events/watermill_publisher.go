package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
)

// TopicTicketRenewed receives one message per ticket obtained from WSAA.
const TopicTicketRenewed = "afip.ticket.renewed"

// TicketRenewedEvent is the payload published on TopicTicketRenewed.
// Token and sign are never published.
type TicketRenewedEvent struct {
	Service        string    `json:"service"`
	UniqueID       int64     `json:"unique_id"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     TopicTicketRenewed,
	}
}

// PublishTicketRenewed publishes a ticket renewal event
func (p *WatermillPublisher) PublishTicketRenewed(ctx context.Context, ticket *core.Ticket) error {
	event := TicketRenewedEvent{
		Service:        ticket.Service,
		UniqueID:       ticket.UniqueID,
		ExpirationTime: ticket.ExpirationTime,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

package store

import (
	"context"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the TicketStore interface.
// The key expires together with the ticket.
type RedisStore struct {
	client *redis.Client
	key    string
	clock  ports.Clock
}

// NewRedisStore creates a Redis store holding the ticket of one service.
// clock should be the one used for ticket validity; nil means the wall clock.
func NewRedisStore(client *redis.Client, service string, clock ports.Clock) ports.TicketStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &RedisStore{
		client: client,
		key:    "afip:ta:" + service,
		clock:  clock,
	}
}

// Load fetches and validates the cached ticket document
func (s *RedisStore) Load(ctx context.Context) (*core.Ticket, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrTicketNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ticket")
	}
	return core.ParseTicket(raw)
}

// Save stores the raw ticket document until its expiration time
func (s *RedisStore) Save(ctx context.Context, ticket *core.Ticket) error {
	ttl := ticket.ExpirationTime.Sub(s.clock.Now())
	if ttl <= 0 {
		return errors.Wrap(core.ErrInvalidTicket, "ticket already expired")
	}

	if err := s.client.Set(ctx, s.key, ticket.Raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write ticket")
	}
	return nil
}

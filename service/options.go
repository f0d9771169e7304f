package service

import (
	"github.com/layer-3/afip/ports"
	"github.com/rs/zerolog"
)

type settings struct {
	clock     ports.Clock
	logger    zerolog.Logger
	publisher ports.EventPublisher
}

func newSettings(opts []Option) settings {
	s := settings{
		clock:  ports.SystemClock{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures AuthService and BillingService.
type Option func(*settings)

// WithClock replaces the wall clock used for ticket validity.
func WithClock(clock ports.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithEventPublisher announces every renewed ticket.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *settings) { s.publisher = publisher }
}

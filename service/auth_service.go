package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/rs/zerolog"
)

// DefaultService is the WSAA service name used for electronic invoicing.
const DefaultService = "wsfe"

// AuthService obtains and caches WSAA access tickets
type AuthService struct {
	service string
	store   ports.TicketStore
	signer  ports.Signer
	login   ports.LoginService

	clock     ports.Clock
	logger    zerolog.Logger
	publisher ports.EventPublisher

	// mu serializes renewals within the process.
	mu sync.Mutex
}

// NewAuthService creates a new authentication service
func NewAuthService(
	service string,
	store ports.TicketStore,
	signer ports.Signer,
	login ports.LoginService,
	opts ...Option,
) *AuthService {
	if service == "" {
		service = DefaultService
	}
	s := newSettings(opts)
	return &AuthService{
		service:   service,
		store:     store,
		signer:    signer,
		login:     login,
		clock:     s.clock,
		logger:    s.logger,
		publisher: s.publisher,
	}
}

// Service returns the WSAA service name tickets are requested for.
func (s *AuthService) Service() string {
	return s.service
}

// GetValidTicket returns the cached ticket while it is unexpired, otherwise
// requests, persists and returns a new one.
func (s *AuthService) GetValidTicket(ctx context.Context) core.TicketResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if cached := s.cachedTicket(ctx, now); cached != nil {
		return core.TicketResult{Outcome: core.NewOutcome(), Ticket: cached}
	}

	ticket, err := s.renew(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Str("service", s.service).Msg("failed to obtain access ticket")
		return core.TicketResult{Outcome: core.NewOutcome(err)}
	}
	return core.TicketResult{Outcome: core.NewOutcome(), Ticket: ticket}
}

func (s *AuthService) cachedTicket(ctx context.Context, now time.Time) *core.Ticket {
	ticket, err := s.store.Load(ctx)
	switch {
	case err == nil:
		if ticket.ValidAt(now) {
			ticket.Service = s.service
			return ticket
		}
		s.logger.Debug().Time("expiration", ticket.ExpirationTime).Msg("cached ticket expired")
	case errors.Is(err, core.ErrTicketNotFound):
	case errors.Is(err, core.ErrInvalidTicket):
		s.logger.Warn().Err(err).Msg("ignoring corrupt cached ticket")
	default:
		s.logger.Warn().Err(err).Msg("failed to read cached ticket")
	}
	return nil
}

func (s *AuthService) renew(ctx context.Context, now time.Time) (*core.Ticket, error) {
	req := core.NewLoginTicketRequest(s.service, now)
	document, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSigning, err)
	}

	cms, err := s.signer.Sign(ctx, document)
	if err != nil {
		if !errors.Is(err, core.ErrSigning) {
			err = fmt.Errorf("%w: %w", core.ErrSigning, err)
		}
		return nil, err
	}

	s.logger.Info().
		Int64("unique_id", req.UniqueID).
		Str("service", s.service).
		Msg("AFIP::loginCms::request")

	raw, err := s.login.LoginCms(ctx, cms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthentication, err)
	}

	ticket, err := core.ParseTicket([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthentication, err)
	}
	if !ticket.ValidAt(now) {
		return nil, fmt.Errorf("%w: ticket expired at %s", core.ErrAuthentication, ticket.ExpirationTime.Format(core.TimeLayout))
	}
	ticket.Service = s.service

	s.logger.Info().
		Int64("unique_id", ticket.UniqueID).
		Time("expiration", ticket.ExpirationTime).
		Msg("AFIP::loginCms::response")

	if err := s.store.Save(ctx, ticket); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTicketRenewed(ctx, ticket); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish ticket renewal")
		}
	}

	return ticket, nil
}

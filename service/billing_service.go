package service

import (
	"context"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds the taxpayer settings every WSFE call carries.
type Config struct {
	Cuit      int64
	SellPoint int
}

func (c Config) Validate() error {
	if c.Cuit <= 0 {
		return errors.Wrap(core.ErrConfig, "cuit is required")
	}
	if c.SellPoint <= 0 {
		return errors.Wrap(core.ErrConfig, "sell_point is required")
	}
	return nil
}

// BillingService issues authenticated WSFE requests
type BillingService struct {
	cfg    Config
	auth   *AuthService
	remote ports.BillingService
	logger zerolog.Logger
}

// NewBillingService validates cfg, warms the ticket cache and checks that
// WSFE answers. Only an invalid configuration or an unreachable endpoint
// fail construction; a SOAP fault from FEDummy is logged.
func NewBillingService(
	ctx context.Context,
	cfg Config,
	auth *AuthService,
	remote ports.BillingService,
	opts ...Option,
) (*BillingService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if auth == nil || remote == nil {
		return nil, errors.Wrap(core.ErrConfig, "auth and remote are required")
	}

	s := &BillingService{
		cfg:    cfg,
		auth:   auth,
		remote: remote,
		logger: newSettings(opts).logger,
	}

	if auth.Service() != DefaultService {
		s.logger.Warn().Str("service", auth.Service()).Msg("tickets are not issued for wsfe")
	}

	if res := auth.GetValidTicket(ctx); !res.Success {
		s.logger.Warn().Str("error", res.Message).Msg("no access ticket at startup")
	}

	if _, err := s.ServerStatus(ctx); err != nil {
		var fault *core.FaultError
		if !errors.As(err, &fault) || !fault.Answered() {
			return nil, errors.Wrap(err, "wsfe unreachable")
		}
		s.logger.Warn().Str("code", fault.Code).Str("fault", fault.Message).Msg("AFIP::SERVER_STATUS")
	}

	return s, nil
}

// ServerStatus calls FEDummy. It needs no ticket.
func (s *BillingService) ServerStatus(ctx context.Context) (core.ServerStatus, error) {
	status, err := s.remote.Dummy(ctx)
	if err != nil {
		return core.ServerStatus{}, err
	}
	s.logger.Info().
		Str("app_server", status.AppServer).
		Str("db_server", status.DbServer).
		Str("auth_server", status.AuthServer).
		Msg("AFIP::SERVER_STATUS")
	return status, nil
}

func (s *BillingService) authContext(ctx context.Context, method string) (core.AuthContext, error) {
	res := s.auth.GetValidTicket(ctx)
	if !res.Success {
		return core.AuthContext{}, &core.RemoteError{Method: method, Err: res.Err()}
	}
	return res.Ticket.AuthContext(s.cfg.Cuit), nil
}

func (s *BillingService) logRequest(method string) *zerolog.Event {
	return s.logger.Info().Str("method", method).Int64("cuit", s.cfg.Cuit)
}

// QueryTotals returns the number of registers accepted per FECAESolicitar.
func (s *BillingService) QueryTotals(ctx context.Context) (int, error) {
	const method = "FECompTotXRequest"

	auth, err := s.authContext(ctx, method)
	if err != nil {
		return 0, err
	}

	s.logRequest(method).Msg("AFIP::" + method + "::request")
	res, err := s.remote.CompTotXRequest(ctx, auth)
	if err != nil {
		return 0, &core.RemoteError{Method: method, Err: err}
	}
	s.logger.Info().Int("reg_x_req", res.RegXReq).Int("errors", len(res.Errors)).Msg("AFIP::" + method + "::response")

	if len(res.Errors) > 0 {
		return 0, &core.RemoteError{Method: method, Entries: res.Errors}
	}
	return res.RegXReq, nil
}

// QueryLastVoucherNumber returns the last authorized voucher number of the
// given type for the configured sell point.
func (s *BillingService) QueryLastVoucherNumber(ctx context.Context, cbteTipo int) (int64, error) {
	const method = "FECompUltimoAutorizado"

	auth, err := s.authContext(ctx, method)
	if err != nil {
		return 0, err
	}

	s.logRequest(method).Int("pto_vta", s.cfg.SellPoint).Int("cbte_tipo", cbteTipo).Msg("AFIP::" + method + "::request")
	res, err := s.remote.CompUltimoAutorizado(ctx, auth, s.cfg.SellPoint, cbteTipo)
	if err != nil {
		return 0, &core.RemoteError{Method: method, Err: err}
	}
	s.logger.Info().Int64("cbte_nro", res.CbteNro).Int("errors", len(res.Errors)).Msg("AFIP::" + method + "::response")

	if len(res.Errors) > 0 {
		return 0, &core.RemoteError{Method: method, Entries: res.Errors}
	}
	return res.CbteNro, nil
}

// NextVoucherNumber is QueryLastVoucherNumber plus one. Two callers may get
// the same number; FECAESolicitar rejects the duplicate.
func (s *BillingService) NextVoucherNumber(ctx context.Context, cbteTipo int) (int64, error) {
	last, err := s.QueryLastVoucherNumber(ctx, cbteTipo)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// AuthorizeInvoice requests a CAE for req. Rejections are reported in the
// result; the error is set only when no ticket could be obtained or the
// call did not complete.
func (s *BillingService) AuthorizeInvoice(ctx context.Context, req core.FeCAEReq) (core.AuthorizationResult, error) {
	const method = "FECAESolicitar"

	auth, err := s.authContext(ctx, method)
	if err != nil {
		return core.AuthorizationResult{}, err
	}

	s.logRequest(method).Interface("request", req).Msg("AFIP::" + method + "::request")
	resp, err := s.remote.CAESolicitar(ctx, auth, req)
	if err != nil {
		return core.AuthorizationResult{}, &core.RemoteError{Method: method, Err: err}
	}
	s.logger.Info().Interface("response", resp).Msg("AFIP::" + method + "::response")

	return NormalizeAuthorization(resp), nil
}

// QueryPointsOfSale lists the sell points enabled for the taxpayer.
func (s *BillingService) QueryPointsOfSale(ctx context.Context) ([]core.PointOfSale, error) {
	const method = "FEParamGetPtosVenta"

	auth, err := s.authContext(ctx, method)
	if err != nil {
		return nil, err
	}

	s.logRequest(method).Msg("AFIP::" + method + "::request")
	res, err := s.remote.ParamGetPtosVenta(ctx, auth)
	if err != nil {
		return nil, &core.RemoteError{Method: method, Err: err}
	}
	s.logger.Info().Int("points_of_sale", len(res.ResultGet)).Int("errors", len(res.Errors)).Msg("AFIP::" + method + "::response")

	if len(res.Errors) > 0 {
		return nil, &core.RemoteError{Method: method, Entries: res.Errors}
	}
	return res.ResultGet, nil
}

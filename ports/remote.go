package ports

import (
	"context"

	"github.com/layer-3/afip/core"
)

// LoginService is the WSAA endpoint. Transport problems and SOAP faults are
// returned as *core.FaultError.
type LoginService interface {
	LoginCms(ctx context.Context, cms string) (string, error)
}

// BillingService is the WSFE endpoint. Transport problems and SOAP faults are
// returned as *core.FaultError; business errors travel inside the results.
type BillingService interface {
	Dummy(ctx context.Context) (core.ServerStatus, error)
	CompTotXRequest(ctx context.Context, auth core.AuthContext) (*core.TotalsResult, error)
	CompUltimoAutorizado(ctx context.Context, auth core.AuthContext, ptoVta, cbteTipo int) (*core.LastVoucherResult, error)
	CAESolicitar(ctx context.Context, auth core.AuthContext, req core.FeCAEReq) (*core.CAEResponse, error)
	ParamGetPtosVenta(ctx context.Context, auth core.AuthContext) (*core.PointsOfSaleResult, error)
}

package soap

import (
	"context"
	"encoding/xml"

	"github.com/hooklift/gowsdl/soap"
	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
)

const wsfeNamespace = "http://ar.gov.afip.dif.FEV1/"

type feDummy struct {
	XMLName xml.Name `xml:"http://ar.gov.afip.dif.FEV1/ FEDummy"`
}

type feDummyResponse struct {
	XMLName xml.Name          `xml:"FEDummyResponse"`
	Result  core.ServerStatus `xml:"FEDummyResult"`
}

type feCompTotXRequest struct {
	XMLName xml.Name         `xml:"http://ar.gov.afip.dif.FEV1/ FECompTotXRequest"`
	Auth    core.AuthContext `xml:"Auth"`
}

type feCompTotXRequestResponse struct {
	XMLName xml.Name          `xml:"FECompTotXRequestResponse"`
	Result  core.TotalsResult `xml:"FECompTotXRequestResult"`
}

type feCompUltimoAutorizado struct {
	XMLName  xml.Name         `xml:"http://ar.gov.afip.dif.FEV1/ FECompUltimoAutorizado"`
	Auth     core.AuthContext `xml:"Auth"`
	PtoVta   int              `xml:"PtoVta"`
	CbteTipo int              `xml:"CbteTipo"`
}

type feCompUltimoAutorizadoResponse struct {
	XMLName xml.Name               `xml:"FECompUltimoAutorizadoResponse"`
	Result  core.LastVoucherResult `xml:"FECompUltimoAutorizadoResult"`
}

type feCAESolicitar struct {
	XMLName  xml.Name         `xml:"http://ar.gov.afip.dif.FEV1/ FECAESolicitar"`
	Auth     core.AuthContext `xml:"Auth"`
	FeCAEReq core.FeCAEReq    `xml:"FeCAEReq"`
}

type feCAESolicitarResponse struct {
	XMLName xml.Name         `xml:"FECAESolicitarResponse"`
	Result  core.CAEResponse `xml:"FECAESolicitarResult"`
}

type feParamGetPtosVenta struct {
	XMLName xml.Name         `xml:"http://ar.gov.afip.dif.FEV1/ FEParamGetPtosVenta"`
	Auth    core.AuthContext `xml:"Auth"`
}

type feParamGetPtosVentaResponse struct {
	XMLName xml.Name                `xml:"FEParamGetPtosVentaResponse"`
	Result  core.PointsOfSaleResult `xml:"FEParamGetPtosVentaResult"`
}

// BillingClient calls WSFEv1.
type BillingClient struct {
	client *soap.Client
}

// NewBillingClient creates a WSFE client for the wsdl_wsfe location
func NewBillingClient(wsdl string, opts Options) *BillingClient {
	return &BillingClient{client: newClient(wsdl, opts)}
}

var _ ports.BillingService = (*BillingClient)(nil)

func (c *BillingClient) call(ctx context.Context, method string, req, resp any) error {
	if err := c.client.CallContext(ctx, wsfeNamespace+method, req, resp); err != nil {
		return faultFrom(err)
	}
	return nil
}

func (c *BillingClient) Dummy(ctx context.Context) (core.ServerStatus, error) {
	resp := &feDummyResponse{}
	if err := c.call(ctx, "FEDummy", &feDummy{}, resp); err != nil {
		return core.ServerStatus{}, err
	}
	return resp.Result, nil
}

func (c *BillingClient) CompTotXRequest(ctx context.Context, auth core.AuthContext) (*core.TotalsResult, error) {
	resp := &feCompTotXRequestResponse{}
	if err := c.call(ctx, "FECompTotXRequest", &feCompTotXRequest{Auth: auth}, resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *BillingClient) CompUltimoAutorizado(ctx context.Context, auth core.AuthContext, ptoVta, cbteTipo int) (*core.LastVoucherResult, error) {
	req := &feCompUltimoAutorizado{Auth: auth, PtoVta: ptoVta, CbteTipo: cbteTipo}
	resp := &feCompUltimoAutorizadoResponse{}
	if err := c.call(ctx, "FECompUltimoAutorizado", req, resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *BillingClient) CAESolicitar(ctx context.Context, auth core.AuthContext, feCAEReq core.FeCAEReq) (*core.CAEResponse, error) {
	resp := &feCAESolicitarResponse{}
	if err := c.call(ctx, "FECAESolicitar", &feCAESolicitar{Auth: auth, FeCAEReq: feCAEReq}, resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *BillingClient) ParamGetPtosVenta(ctx context.Context, auth core.AuthContext) (*core.PointsOfSaleResult, error) {
	resp := &feParamGetPtosVentaResponse{}
	if err := c.call(ctx, "FEParamGetPtosVenta", &feParamGetPtosVenta{Auth: auth}, resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

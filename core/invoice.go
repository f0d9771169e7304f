package core

import (
	"encoding/xml"

	"github.com/shopspring/decimal"
)

// ResultApproved is the FeCabResp.Resultado value for an approved request.
const ResultApproved = "A"

// FeCAEReq is the electronic-document payload sent to FECAESolicitar.
// It is forwarded as given.
type FeCAEReq struct {
	FeCabReq FeCabReq          `xml:"FeCabReq" json:"FeCabReq"`
	FeDetReq []FECAEDetRequest `xml:"FeDetReq>FECAEDetRequest" json:"FeDetReq"`
}

type FeCabReq struct {
	CantReg  int `xml:"CantReg" json:"CantReg"`
	PtoVta   int `xml:"PtoVta" json:"PtoVta"`
	CbteTipo int `xml:"CbteTipo" json:"CbteTipo"`
}

// FECAEDetRequest is a single voucher in an authorization request.
type FECAEDetRequest struct {
	Concepto     int              `xml:"Concepto" json:"Concepto"`
	DocTipo      int              `xml:"DocTipo" json:"DocTipo"`
	DocNro       int64            `xml:"DocNro" json:"DocNro"`
	CbteDesde    int64            `xml:"CbteDesde" json:"CbteDesde"`
	CbteHasta    int64            `xml:"CbteHasta" json:"CbteHasta"`
	CbteFch      string           `xml:"CbteFch,omitempty" json:"CbteFch,omitempty"`
	ImpTotal     decimal.Decimal  `xml:"ImpTotal" json:"ImpTotal"`
	ImpTotConc   decimal.Decimal  `xml:"ImpTotConc" json:"ImpTotConc"`
	ImpNeto      decimal.Decimal  `xml:"ImpNeto" json:"ImpNeto"`
	ImpOpEx      decimal.Decimal  `xml:"ImpOpEx" json:"ImpOpEx"`
	ImpTrib      decimal.Decimal  `xml:"ImpTrib" json:"ImpTrib"`
	ImpIVA       decimal.Decimal  `xml:"ImpIVA" json:"ImpIVA"`
	FchServDesde string           `xml:"FchServDesde,omitempty" json:"FchServDesde,omitempty"`
	FchServHasta string           `xml:"FchServHasta,omitempty" json:"FchServHasta,omitempty"`
	FchVtoPago   string           `xml:"FchVtoPago,omitempty" json:"FchVtoPago,omitempty"`
	MonID        string           `xml:"MonId" json:"MonId"`
	MonCotiz     decimal.Decimal  `xml:"MonCotiz" json:"MonCotiz"`
	CbtesAsoc    *ArrayOfCbteAsoc `xml:"CbtesAsoc,omitempty" json:"CbtesAsoc,omitempty"`
	Tributos     *ArrayOfTributo  `xml:"Tributos,omitempty" json:"Tributos,omitempty"`
	Iva          *ArrayOfAlicIva  `xml:"Iva,omitempty" json:"Iva,omitempty"`
	Opcionales   *ArrayOfOpcional `xml:"Opcionales,omitempty" json:"Opcionales,omitempty"`
}

// CbteAsoc references a previously issued voucher (credit/debit notes).
type CbteAsoc struct {
	Tipo    int    `xml:"Tipo" json:"Tipo"`
	PtoVta  int    `xml:"PtoVta" json:"PtoVta"`
	Nro     int64  `xml:"Nro" json:"Nro"`
	Cuit    string `xml:"Cuit,omitempty" json:"Cuit,omitempty"`
	CbteFch string `xml:"CbteFch,omitempty" json:"CbteFch,omitempty"`
}

type Tributo struct {
	ID      int             `xml:"Id" json:"Id"`
	Desc    string          `xml:"Desc,omitempty" json:"Desc,omitempty"`
	BaseImp decimal.Decimal `xml:"BaseImp" json:"BaseImp"`
	Alic    decimal.Decimal `xml:"Alic" json:"Alic"`
	Importe decimal.Decimal `xml:"Importe" json:"Importe"`
}

type AlicIva struct {
	ID      int             `xml:"Id" json:"Id"`
	BaseImp decimal.Decimal `xml:"BaseImp" json:"BaseImp"`
	Importe decimal.Decimal `xml:"Importe" json:"Importe"`
}

type Opcional struct {
	ID    string `xml:"Id" json:"Id"`
	Valor string `xml:"Valor" json:"Valor"`
}

// ArrayOfCbteAsoc and the other ArrayOf groups are optional parts of a
// voucher. WSFE reads a present but empty group as informed, so an empty
// group writes nothing.
type ArrayOfCbteAsoc struct {
	CbteAsoc []CbteAsoc `xml:"CbteAsoc" json:"CbteAsoc"`
}

func (a ArrayOfCbteAsoc) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return encodeGroup(e, start, "CbteAsoc", a.CbteAsoc)
}

type ArrayOfTributo struct {
	Tributo []Tributo `xml:"Tributo" json:"Tributo"`
}

func (a ArrayOfTributo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return encodeGroup(e, start, "Tributo", a.Tributo)
}

type ArrayOfAlicIva struct {
	AlicIva []AlicIva `xml:"AlicIva" json:"AlicIva"`
}

func (a ArrayOfAlicIva) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return encodeGroup(e, start, "AlicIva", a.AlicIva)
}

type ArrayOfOpcional struct {
	Opcional []Opcional `xml:"Opcional" json:"Opcional"`
}

func (a ArrayOfOpcional) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return encodeGroup(e, start, "Opcional", a.Opcional)
}

func encodeGroup[T any](e *xml.Encoder, start xml.StartElement, item string, items []T) error {
	if len(items) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, v := range items {
		if err := e.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: item}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// RemoteMessage is an Err, Obs or Evt entry in a WSFE response.
type RemoteMessage struct {
	Code int    `xml:"Code" json:"Code"`
	Msg  string `xml:"Msg" json:"Msg"`
}

type FeCabResp struct {
	Cuit       int64  `xml:"Cuit" json:"Cuit"`
	PtoVta     int    `xml:"PtoVta" json:"PtoVta"`
	CbteTipo   int    `xml:"CbteTipo" json:"CbteTipo"`
	FchProceso string `xml:"FchProceso" json:"FchProceso"`
	CantReg    int    `xml:"CantReg" json:"CantReg"`
	Resultado  string `xml:"Resultado" json:"Resultado"`
	Reproceso  string `xml:"Reproceso" json:"Reproceso"`
}

type FECAEDetResponse struct {
	Concepto      int             `xml:"Concepto" json:"Concepto"`
	DocTipo       int             `xml:"DocTipo" json:"DocTipo"`
	DocNro        int64           `xml:"DocNro" json:"DocNro"`
	CbteDesde     int64           `xml:"CbteDesde" json:"CbteDesde"`
	CbteHasta     int64           `xml:"CbteHasta" json:"CbteHasta"`
	CbteFch       string          `xml:"CbteFch" json:"CbteFch"`
	Resultado     string          `xml:"Resultado" json:"Resultado"`
	Observaciones []RemoteMessage `xml:"Observaciones>Obs" json:"Observaciones,omitempty"`
	CAE           string          `xml:"CAE" json:"CAE"`
	CAEFchVto     string          `xml:"CAEFchVto" json:"CAEFchVto"`
}

// CAEResponse is the FECAESolicitarResult as decoded from the wire.
type CAEResponse struct {
	FeCabResp FeCabResp          `xml:"FeCabResp" json:"FeCabResp"`
	FeDetResp []FECAEDetResponse `xml:"FeDetResp>FECAEDetResponse" json:"FeDetResp"`
	Events    []RemoteMessage    `xml:"Events>Evt" json:"Events,omitempty"`
	Errors    []RemoteMessage    `xml:"Errors>Err" json:"Errors,omitempty"`
}

// CAE is the electronic authorization code and its due date (yyyymmdd).
type CAE struct {
	Number string `json:"nro"`
	Expiry string `json:"vto"`
}

// AuthorizationResult is the caller-facing outcome of FECAESolicitar.
type AuthorizationResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	ErrorMessage string       `json:"errors,omitempty"`
	CAE          *CAE         `json:"cae,omitempty"`
	InvoiceDate  string       `json:"cbtefch,omitempty"`
	Observations []string     `json:"observations,omitempty"`
	Errors       []string     `json:"error_list,omitempty"`
	Response     *CAEResponse `json:"afip_response,omitempty"`
}

// ServerStatus is the FEDummy answer.
type ServerStatus struct {
	AppServer  string `xml:"AppServer" json:"AppServer"`
	DbServer   string `xml:"DbServer" json:"DbServer"`
	AuthServer string `xml:"AuthServer" json:"AuthServer"`
}

type PointOfSale struct {
	Nro         int    `xml:"Nro" json:"Nro"`
	EmisionTipo string `xml:"EmisionTipo" json:"EmisionTipo"`
	Bloqueado   string `xml:"Bloqueado" json:"Bloqueado"`
	FchBaja     string `xml:"FchBaja" json:"FchBaja"`
}

// TotalsResult is the FECompTotXRequestResult.
type TotalsResult struct {
	RegXReq int             `xml:"RegXReq"`
	Errors  []RemoteMessage `xml:"Errors>Err"`
}

// LastVoucherResult is the FECompUltimoAutorizadoResult.
type LastVoucherResult struct {
	PtoVta   int             `xml:"PtoVta"`
	CbteTipo int             `xml:"CbteTipo"`
	CbteNro  int64           `xml:"CbteNro"`
	Errors   []RemoteMessage `xml:"Errors>Err"`
}

// PointsOfSaleResult is the FEParamGetPtosVentaResult.
type PointsOfSaleResult struct {
	ResultGet []PointOfSale   `xml:"ResultGet>PtoVenta"`
	Errors    []RemoteMessage `xml:"Errors>Err"`
}

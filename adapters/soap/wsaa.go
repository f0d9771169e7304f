package soap

import (
	"context"
	"encoding/xml"

	"github.com/hooklift/gowsdl/soap"
	"github.com/layer-3/afip/ports"
)

type loginCms struct {
	XMLName xml.Name `xml:"http://wsaa.view.sua.dvadac.desein.afip.gov loginCms"`
	In0     string   `xml:"in0"`
}

type loginCmsResponse struct {
	XMLName        xml.Name `xml:"loginCmsResponse"`
	LoginCmsReturn string   `xml:"loginCmsReturn"`
}

// LoginClient calls WSAA.
type LoginClient struct {
	client *soap.Client
}

// NewLoginClient creates a WSAA client for the wsdl_wsaa location
func NewLoginClient(wsdl string, opts Options) *LoginClient {
	return &LoginClient{client: newClient(wsdl, opts)}
}

var _ ports.LoginService = (*LoginClient)(nil)

// LoginCms sends the signed request and returns the ticket document
func (c *LoginClient) LoginCms(ctx context.Context, cms string) (string, error) {
	resp := &loginCmsResponse{}
	if err := c.client.CallContext(ctx, "", &loginCms{In0: cms}, resp); err != nil {
		return "", faultFrom(err)
	}
	return resp.LoginCmsReturn, nil
}

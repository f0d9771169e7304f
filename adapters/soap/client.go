// Package soap binds the WSAA and WSFE SOAP operations to the ports the
// services depend on, on top of the gowsdl SOAP client.
package soap

import (
	"encoding/xml"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hooklift/gowsdl/soap"
	"github.com/layer-3/afip/core"
	"github.com/pkg/errors"
)

// Options configures the HTTP side of the SOAP clients.
type Options struct {
	ProxyHost string
	ProxyPort int
	Timeout   time.Duration
}

// EndpointFromWSDL turns a "...?wsdl" location into the service endpoint.
func EndpointFromWSDL(wsdl string) string {
	u, err := url.Parse(wsdl)
	if err != nil {
		return wsdl
	}
	if strings.EqualFold(u.RawQuery, "wsdl") {
		u.RawQuery = ""
	}
	return u.String()
}

func newClient(endpoint string, opts Options) *soap.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyHost != "" {
		host := opts.ProxyHost
		if opts.ProxyPort > 0 {
			host = net.JoinHostPort(opts.ProxyHost, strconv.Itoa(opts.ProxyPort))
		}
		transport.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: host})
	}

	httpClient := &http.Client{Transport: transport, Timeout: opts.Timeout}
	return soap.NewClient(EndpointFromWSDL(endpoint), soap.WithHTTPClient(httpClient))
}

type faultEnvelope struct {
	Body struct {
		Fault *struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`
	} `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

// faultFrom maps any call failure into a *core.FaultError. SOAP 1.1 faults
// arrive as HTTP 500, so the fault is read back from the response body.
func faultFrom(err error) error {
	var fault *soap.SOAPFault
	if errors.As(err, &fault) {
		return &core.FaultError{Code: fault.Code, Message: fault.String, Err: err}
	}

	var httpErr *soap.HTTPError
	if errors.As(err, &httpErr) {
		var env faultEnvelope
		if xml.Unmarshal(httpErr.ResponseBody, &env) == nil && env.Body.Fault != nil && env.Body.Fault.Code != "" {
			return &core.FaultError{Code: env.Body.Fault.Code, Message: env.Body.Fault.String, Err: err}
		}
	}
	return &core.FaultError{Code: core.FaultCodeHTTP, Message: err.Error(), Err: err}
}

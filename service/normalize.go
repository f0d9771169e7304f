package service

import (
	"html"
	"strings"

	"github.com/layer-3/afip/core"
)

// NormalizeAuthorization maps a FECAESolicitar result to the caller-facing
// shape. An approved header yields the CAE of the first detail; anything
// else yields the escaped observation and error messages.
//
// Messages are escaped with html.EscapeString: only < > & ' " are replaced,
// quotes become numeric references (&#34; &#39;) and accented letters are
// kept as UTF-8 rather than named entities such as &aacute;.
func NormalizeAuthorization(resp *core.CAEResponse) core.AuthorizationResult {
	if resp == nil {
		return core.AuthorizationResult{}
	}

	if resp.FeCabResp.Resultado == core.ResultApproved {
		result := core.AuthorizationResult{
			Success:  true,
			Message:  core.MessageOK,
			Response: resp,
		}
		if len(resp.FeDetResp) > 0 {
			detail := resp.FeDetResp[0]
			result.CAE = &core.CAE{Number: detail.CAE, Expiry: detail.CAEFchVto}
			result.InvoiceDate = detail.CbteFch
		}
		return result
	}

	var observations []string
	for _, detail := range resp.FeDetResp {
		observations = appendEscaped(observations, detail.Observaciones)
	}
	errs := appendEscaped(nil, resp.Errors)

	return core.AuthorizationResult{
		Success:      false,
		Message:      strings.Join(observations, "\n"),
		ErrorMessage: strings.Join(errs, "\n"),
		Observations: observations,
		Errors:       errs,
		Response:     resp,
	}
}

func appendEscaped(dst []string, entries []core.RemoteMessage) []string {
	for _, entry := range entries {
		dst = append(dst, html.EscapeString(entry.Msg))
	}
	return dst
}

package core

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// TicketGenerationSkew is subtracted from now for the request generationTime.
	TicketGenerationSkew = 220 * time.Second

	// TicketExpirationSkew is added to now for the request expirationTime.
	TicketExpirationSkew = 240 * time.Second

	// TimeLayout is the ISO-8601 layout WSAA expects in login requests.
	TimeLayout = "2006-01-02T15:04:05-07:00"

	requestHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
)

// Ticket is an access ticket (TA) issued by WSAA
type Ticket struct {
	UniqueID       int64
	GenerationTime time.Time
	ExpirationTime time.Time
	Service        string
	Token          string
	Sign           string

	// Raw is the document exactly as returned by loginCms.
	Raw []byte
}

// ValidAt reports whether the ticket can still be used at t.
func (t *Ticket) ValidAt(at time.Time) bool {
	return t != nil && t.Token != "" && t.Sign != "" && t.ExpirationTime.After(at)
}

// AuthContext builds the Auth block attached to every billing call.
func (t *Ticket) AuthContext(cuit int64) AuthContext {
	return AuthContext{Token: t.Token, Sign: t.Sign, Cuit: cuit}
}

// AuthContext is the {Token, Sign, Cuit} triple WSFE requires.
type AuthContext struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  int64  `xml:"Cuit"`
}

type ticketDocument struct {
	XMLName xml.Name `xml:"loginTicketResponse"`
	Header  struct {
		Source         string `xml:"source"`
		Destination    string `xml:"destination"`
		UniqueID       string `xml:"uniqueId"`
		GenerationTime string `xml:"generationTime"`
		ExpirationTime string `xml:"expirationTime"`
	} `xml:"header"`
	Credentials struct {
		Token string `xml:"token"`
		Sign  string `xml:"sign"`
	} `xml:"credentials"`
}

// ParseTicket decodes a loginTicketResponse document. A document that is not
// well-formed or lacks token, sign or expirationTime is rejected with
// ErrInvalidTicket.
func ParseTicket(raw []byte) (*Ticket, error) {
	var doc ticketDocument
	if err := xml.Unmarshal(bytes.TrimSpace(raw), &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidTicket, err.Error())
	}
	if doc.Credentials.Token == "" || doc.Credentials.Sign == "" {
		return nil, errors.Wrap(ErrInvalidTicket, "missing credentials")
	}
	if doc.Header.ExpirationTime == "" {
		return nil, errors.Wrap(ErrInvalidTicket, "missing expirationTime")
	}

	expiration, err := parseTimestamp(strings.TrimSpace(doc.Header.ExpirationTime))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTicket, "bad expirationTime")
	}
	ticket := &Ticket{
		ExpirationTime: expiration,
		Token:          doc.Credentials.Token,
		Sign:           doc.Credentials.Sign,
		Raw:            append([]byte(nil), raw...),
	}
	if doc.Header.GenerationTime != "" {
		if ticket.GenerationTime, err = parseTimestamp(strings.TrimSpace(doc.Header.GenerationTime)); err != nil {
			return nil, errors.Wrap(ErrInvalidTicket, "bad generationTime")
		}
	}
	if doc.Header.UniqueID != "" {
		if ticket.UniqueID, err = strconv.ParseInt(strings.TrimSpace(doc.Header.UniqueID), 10, 64); err != nil {
			return nil, errors.Wrap(ErrInvalidTicket, "bad uniqueId")
		}
	}
	return ticket, nil
}

// WSAA emits milliseconds; login requests do not.
func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	return time.Parse(TimeLayout, v)
}

// Credentials is the key material used to sign one login request.
type Credentials struct {
	Certificate []byte
	PrivateKey  []byte
	Passphrase  string
}

// LoginTicketRequest is the TRA document signed and sent to loginCms.
type LoginTicketRequest struct {
	UniqueID       int64
	GenerationTime time.Time
	ExpirationTime time.Time
	Service        string
}

// NewLoginTicketRequest builds a request valid from now-220s to now+240s.
func NewLoginTicketRequest(service string, now time.Time) LoginTicketRequest {
	return LoginTicketRequest{
		UniqueID:       now.Unix(),
		GenerationTime: now.Add(-TicketGenerationSkew),
		ExpirationTime: now.Add(TicketExpirationSkew),
		Service:        service,
	}
}

type loginTicketRequestDocument struct {
	XMLName xml.Name `xml:"loginTicketRequest"`
	Version string   `xml:"version,attr"`
	Header  struct {
		UniqueID       int64  `xml:"uniqueId"`
		GenerationTime string `xml:"generationTime"`
		ExpirationTime string `xml:"expirationTime"`
	} `xml:"header"`
	Service string `xml:"service"`
}

// Marshal renders the request with its XML declaration.
func (r LoginTicketRequest) Marshal() ([]byte, error) {
	doc := loginTicketRequestDocument{Version: "1.0", Service: r.Service}
	doc.Header.UniqueID = r.UniqueID
	doc.Header.GenerationTime = r.GenerationTime.Format(TimeLayout)
	doc.Header.ExpirationTime = r.ExpirationTime.Format(TimeLayout)

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal login ticket request")
	}
	return append([]byte(requestHeader), body...), nil
}

package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/layer-3/afip/core"
)

var testNow = time.Date(2024, 1, 5, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func ticketXML(token, sign string, generation, expiration time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<loginTicketResponse version="1.0">
  <header>
    <source>CN=wsaahomo, O=AFIP, C=AR, SERIALNUMBER=CUIT 33693450239</source>
    <destination>SERIALNUMBER=CUIT 20123456789, CN=test</destination>
    <uniqueId>%d</uniqueId>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>%s</token>
    <sign>%s</sign>
  </credentials>
</loginTicketResponse>`,
		generation.Unix(),
		generation.Format("2006-01-02T15:04:05.000-07:00"),
		expiration.Format("2006-01-02T15:04:05.000-07:00"),
		token, sign)
}

type stubSigner struct {
	mu        sync.Mutex
	documents [][]byte
	err       error
}

func (s *stubSigner) Sign(_ context.Context, document []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, append([]byte(nil), document...))
	if s.err != nil {
		return "", s.err
	}
	return "MIIC-signed-cms", nil
}

type stubLogin struct {
	mu       sync.Mutex
	calls    int
	cms      string
	response string
	err      error
}

func (s *stubLogin) LoginCms(_ context.Context, cms string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.cms = cms
	return s.response, s.err
}

func (s *stubLogin) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type failingStore struct {
	loadErr error
	saveErr error
	saved   int
}

func (s *failingStore) Load(context.Context) (*core.Ticket, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, core.ErrTicketNotFound
}

func (s *failingStore) Save(context.Context, *core.Ticket) error {
	s.saved++
	return s.saveErr
}

type stubPublisher struct {
	tickets []*core.Ticket
	err     error
}

func (p *stubPublisher) PublishTicketRenewed(_ context.Context, ticket *core.Ticket) error {
	p.tickets = append(p.tickets, ticket)
	return p.err
}

type stubRemote struct {
	status    core.ServerStatus
	dummyErr  error
	totals    *core.TotalsResult
	last      *core.LastVoucherResult
	cae       *core.CAEResponse
	points    *core.PointsOfSaleResult
	err       error
	auth      core.AuthContext
	ptoVta    int
	cbteTipo  int
	request   core.FeCAEReq
	callCount int
}

func (r *stubRemote) Dummy(context.Context) (core.ServerStatus, error) {
	return r.status, r.dummyErr
}

func (r *stubRemote) CompTotXRequest(_ context.Context, auth core.AuthContext) (*core.TotalsResult, error) {
	r.callCount++
	r.auth = auth
	return r.totals, r.err
}

func (r *stubRemote) CompUltimoAutorizado(_ context.Context, auth core.AuthContext, ptoVta, cbteTipo int) (*core.LastVoucherResult, error) {
	r.callCount++
	r.auth, r.ptoVta, r.cbteTipo = auth, ptoVta, cbteTipo
	return r.last, r.err
}

func (r *stubRemote) CAESolicitar(_ context.Context, auth core.AuthContext, req core.FeCAEReq) (*core.CAEResponse, error) {
	r.callCount++
	r.auth, r.request = auth, req
	return r.cae, r.err
}

func (r *stubRemote) ParamGetPtosVenta(_ context.Context, auth core.AuthContext) (*core.PointsOfSaleResult, error) {
	r.callCount++
	r.auth = auth
	return r.points, r.err
}

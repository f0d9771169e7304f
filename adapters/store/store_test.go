package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/afip/adapters/store"
	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketDocument(token, sign string, expiration time.Time) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
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
		expiration.Unix(),
		expiration.Add(-12*time.Hour).Format("2006-01-02T15:04:05.000-07:00"),
		expiration.Format("2006-01-02T15:04:05.000-07:00"),
		token, sign))
}

func newTicket(t *testing.T, token string, expiration time.Time) *core.Ticket {
	t.Helper()
	ticket, err := core.ParseTicket(ticketDocument(token, "S-"+token, expiration))
	require.NoError(t, err)
	return ticket
}

func roundTrip(t *testing.T, s ports.TicketStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, core.ErrTicketNotFound)

	first := newTicket(t, "T1", time.Now().Add(time.Hour))
	require.NoError(t, s.Save(ctx, first))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", loaded.Token)
	assert.Equal(t, "S-T1", loaded.Sign)
	assert.Equal(t, first.Raw, loaded.Raw)
	assert.True(t, loaded.ExpirationTime.Equal(first.ExpirationTime))

	second := newTicket(t, "T2", time.Now().Add(2*time.Hour))
	require.NoError(t, s.Save(ctx, second))

	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", loaded.Token)
}

func TestMemoryStore(t *testing.T) {
	s := store.NewMemoryStore()
	roundTrip(t, s)

	s.Clear()
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrTicketNotFound)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ta.xml")
	s := store.NewFileStore(path)
	roundTrip(t, s)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<token>T2</token>")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ta.xml")
	require.NoError(t, os.WriteFile(path, []byte("<loginTicketResponse><header>"), 0o600))

	_, err := store.NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidTicket)
}

func TestFileStore_MissingCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ta.xml")
	doc := `<loginTicketResponse><header><expirationTime>2099-01-01T00:00:00-03:00</expirationTime></header></loginTicketResponse>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := store.NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidTicket)
}

func TestFileStore_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "ta.xml")
	err := store.NewFileStore(path).Save(context.Background(), newTicket(t, "T1", time.Now().Add(time.Hour)))
	assert.Error(t, err)
}

func TestLockedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ta.xml")
	roundTrip(t, store.NewLockedFileStore(path))

	_, err := os.Stat(path + ".lock")
	assert.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	roundTrip(t, store.NewRedisStore(client, "wsfe", nil))

	ttl := mr.TTL("afip:ta:wsfe")
	assert.Greater(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, 2*time.Hour)
}

func TestRedisStore_RejectsExpiredTicket(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := store.NewRedisStore(client, "wsfe", nil)
	err := s.Save(context.Background(), newTicket(t, "T1", time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, core.ErrInvalidTicket)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestRedisStore_TTLFollowsClock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	expiration := time.Now().Truncate(time.Second).Add(-time.Hour)
	clock := fixedClock{now: expiration.Add(-30 * time.Minute)}
	s := store.NewRedisStore(client, "wsfe", clock)

	require.NoError(t, s.Save(context.Background(), newTicket(t, "T1", expiration)))
	assert.Equal(t, 30*time.Minute, mr.TTL("afip:ta:wsfe"))

	err := store.NewRedisStore(client, "wsfe", fixedClock{now: expiration}).Save(context.Background(), newTicket(t, "T1", expiration))
	assert.ErrorIs(t, err, core.ErrInvalidTicket)
}

package main

import (
	"context"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/afip/adapters/events"
	"github.com/layer-3/afip/adapters/signer"
	"github.com/layer-3/afip/adapters/soap"
	"github.com/layer-3/afip/adapters/store"
	"github.com/layer-3/afip/config"
	"github.com/layer-3/afip/ports"
	"github.com/layer-3/afip/service"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds everything a command needs, built once from the config file.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
	auth   *service.AuthService
	remote ports.BillingService

	closers []func() error
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "json" {
		return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat).With().Str("service", cfg.Service).Logger(),
	}

	var redisClient *redis.Client
	if cfg.TicketStore == config.StoreRedis || cfg.PublishEvents {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse redis url")
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
	}

	var ticketStore ports.TicketStore
	switch cfg.TicketStore {
	case config.StoreLockedFile:
		ticketStore = store.NewLockedFileStore(cfg.TAFile)
	case config.StoreRedis:
		ticketStore = store.NewRedisStore(redisClient, cfg.Service, ports.SystemClock{})
	case config.StoreMemory:
		ticketStore = store.NewMemoryStore()
	default:
		ticketStore = store.NewFileStore(cfg.TAFile)
	}

	opts := []service.Option{service.WithLogger(a.logger)}
	if cfg.PublishEvents {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			newWatermillLogger(a.logger),
		)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "failed to create redis publisher")
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, service.WithEventPublisher(events.NewWatermillPublisher(publisher)))
	}

	soapOpts := soap.Options{
		ProxyHost: cfg.ProxyHost,
		ProxyPort: cfg.ProxyPort,
		Timeout:   cfg.Timeout,
	}

	a.auth = service.NewAuthService(
		cfg.Service,
		ticketStore,
		signer.NewFileSigner(cfg.CrtFile, cfg.PrivateKeyFile, cfg.KeyPhrase),
		soap.NewLoginClient(cfg.WSDLWSAA, soapOpts),
		opts...,
	)
	a.remote = soap.NewBillingClient(cfg.WSDLWSFE, soapOpts)

	return a, nil
}

func (a *app) billing(ctx context.Context) (*service.BillingService, error) {
	return service.NewBillingService(ctx,
		service.Config{Cuit: a.cfg.Cuit, SellPoint: a.cfg.SellPoint},
		a.auth,
		a.remote,
		service.WithLogger(a.logger),
	)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// watermillLogger routes watermill's logs through zerolog.
type watermillLogger struct {
	logger zerolog.Logger
}

func newWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{logger: logger.With().Str("component", "watermill").Logger()}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

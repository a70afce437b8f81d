package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"animehub-client/internal/api"
	"animehub-client/internal/chat"
	"animehub-client/internal/config"
	"animehub-client/internal/models"
	"animehub-client/internal/observability"
	"animehub-client/internal/rabbitmq"
	"animehub-client/internal/repositories"
	"animehub-client/internal/socketio"
	"animehub-client/internal/telemetry"
	"animehub-client/internal/ws"
)

const (
	serviceName        = "animehub-client"
	activityRoutingKey = "client.activity"
	pushDialTimeout    = 10 * time.Second
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *api.Client
	state     repositories.StateRepository
	pending   *repositories.PendingChatRepo
	publisher rabbitmq.Publisher
	activity  *telemetry.ActivityEmitter

	closers []func(context.Context) error
}

// globalFlags are the persistent flags that override the environment.
type globalFlags struct {
	baseURL  string
	state    string
	push     string
	logLevel string
}

func (f globalFlags) apply(cfg *config.Config) {
	if f.baseURL != "" {
		cfg.BaseURL = f.baseURL
	}
	if f.state != "" {
		cfg.StateDriver = f.state
	}
	if f.push != "" {
		cfg.PushTransport = f.push
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
}

// newApp loads config and wires logging, tracing, metrics, the activity
// publisher, the state store and the REST client with its saved session.
// quiet drops log output that would otherwise land on the terminal.
func newApp(ctx context.Context, flags globalFlags, quiet bool) (*app, error) {
	cfg := config.Load()
	flags.apply(cfg)

	a := &app{cfg: cfg, logger: zap.NewNop()}
	if !quiet || cfg.LogFile != "" {
		logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.onClose(func(context.Context) error {
			_ = logger.Sync()
			return nil
		})
	}

	shutdown, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		a.logger.Warn("tracing disabled", zap.Error(err))
	} else {
		a.onClose(shutdown)
	}

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	a.publisher = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, a.logger)
	a.onClose(func(context.Context) error { return a.publisher.Close() })
	observability.SetPublisher(a.publisher)
	a.activity = telemetry.NewActivityEmitter(a.publisher, activityRoutingKey, serviceName, cfg.Environment, a.logger)
	a.logger.Debug("activity publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(a.publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(a.publisher)))

	state, closeState, err := repositories.Open(ctx, cfg, a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open state store: %w", err)
	}
	a.state = state
	a.onClose(func(context.Context) error { return closeState() })
	a.pending = repositories.NewPendingChatRepo(state, a.logger)

	client, err := api.New(cfg.BaseURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(a.logger),
		api.WithStateStore(state),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := client.RestoreSession(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.client = client
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything in reverse order of acquisition.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Debug("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	observability.SetPublisher(nil)
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.onClose(srv.Shutdown)
	a.logger.Info("metrics listening", zap.String("addr", addr))
}

// me returns the logged-in user.
func (a *app) me(ctx context.Context) (models.User, error) {
	return a.client.Me(ctx)
}

// dialPush connects the configured push transport with the current session.
// When the server cannot be reached the chat still works over REST, without
// live delivery.
func (a *app) dialPush(ctx context.Context) chat.PushChannel {
	header := a.client.SessionHeader()
	ctx, cancel := context.WithTimeout(ctx, pushDialTimeout)
	defer cancel()

	var (
		push chat.PushChannel
		err  error
	)
	switch a.cfg.PushTransport {
	case ws.Transport:
		var endpoint string
		endpoint, err = ws.Endpoint(a.cfg.BaseURL, a.cfg.WSPath)
		if err == nil {
			var c *ws.Client
			if c, err = ws.Dial(ctx, endpoint, header, a.logger); err == nil {
				push = c
			}
		}
	default:
		var c *socketio.Client
		if c, err = socketio.Dial(ctx, a.cfg.BaseURL, header, a.logger); err == nil {
			push = c
		}
	}
	if err != nil {
		a.logger.Warn("push channel unavailable, live updates disabled",
			zap.String("transport", a.cfg.PushTransport), zap.Error(err))
		return newOfflinePush()
	}
	return push
}

// offlinePush stands in for a push channel that could not be dialed.
type offlinePush struct {
	events chan models.PushMessage
}

func newOfflinePush() *offlinePush {
	return &offlinePush{events: make(chan models.PushMessage)}
}

func (p *offlinePush) Join(context.Context, models.ID) error { return nil }
func (p *offlinePush) Emit(context.Context, models.PushMessage) error { return nil }
func (p *offlinePush) Events() <-chan models.PushMessage { return p.events }
func (p *offlinePush) Close() error { return nil }

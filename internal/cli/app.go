// Package cli is the command-line front end of the admin client: session
// handling, list/stats/delete per resource and a long-running watch.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/config"
	"github.com/noah-isme/gema-admin/internal/refresh"
	"github.com/noah-isme/gema-admin/internal/resources"
	"github.com/noah-isme/gema-admin/internal/session"
)

const sessionKeyPrefix = "gema:admin:session"

// Options override what the root command would otherwise build from the
// environment.
type Options struct {
	Config *config.Config
	Store  session.Store
	Logger *zerolog.Logger
	Out    io.Writer
}

// App holds the dependencies shared by every command.
type App struct {
	cfg      config.Config
	logger   zerolog.Logger
	out      io.Writer
	sessions *session.Manager
	services *resources.Services

	redis *redis.Client
	nats  *nats.Conn
}

func bootstrap(ctx context.Context, opts Options) (*App, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
	}

	logger := newLogger(cfg.LogLevel)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	app := &App{cfg: cfg, logger: logger, out: out}

	store := opts.Store
	if store == nil {
		built, err := app.sessionStore(ctx)
		if err != nil {
			return nil, err
		}
		store = built
	}

	app.sessions = session.NewManager(store, logger)
	if err := app.sessions.Init(ctx); err != nil {
		app.Close()
		return nil, err
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.RequestTimeout,
		StrictEnvelope: cfg.StrictEnvelope,
		Tokens:         app.sessions,
	}, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.services = resources.New(client, resources.Options{MaxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024}, logger)
	return app, nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(parsed)
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.SessionBackend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil
	case config.SessionBackendRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(client, sessionKeyPrefix), nil
	default:
		return session.NewFileStore(a.cfg.SessionFile), nil
	}
}

func (a *App) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := session.ConnectRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return client, nil
}

// broadcaster connects the configured fan-out transports. It returns nil
// when none is configured.
func (a *App) broadcaster(ctx context.Context) (*refresh.Broadcaster, error) {
	var redisClient *redis.Client
	if a.cfg.RedisURL != "" {
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		redisClient = client
	}
	if a.cfg.NATSURL != "" && a.nats == nil {
		conn, err := refresh.ConnectNATS(a.cfg.NATSURL, a.cfg.AppName)
		if err != nil {
			return nil, err
		}
		a.nats = conn
	}
	if redisClient == nil && a.nats == nil {
		return nil, nil
	}
	return refresh.NewBroadcaster(redisClient, a.cfg.EventsChannel, a.nats, a.cfg.NATSSubject, a.logger), nil
}

// Close releases connections opened by commands.
func (a *App) Close() {
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to drain nats connection")
		}
		a.nats = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
		a.redis = nil
	}
}

func (a *App) print(value interface{}) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

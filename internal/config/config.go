package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Session storage backends.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// DefaultBaseURL is used when no GEMA_API_BASE_URL is provided.
const DefaultBaseURL = "http://localhost:5000/api"

// Config holds runtime configuration values for the admin client and CLI.
type Config struct {
	AppName        string
	BaseURL        string
	RequestTimeout time.Duration
	StrictEnvelope bool
	SessionBackend string
	SessionFile    string
	RedisURL       string
	EventsChannel  string
	NATSURL        string
	NATSSubject    string
	LogLevel       string
	WatchSchedule  string
	MetricsAddr    string
	MaxUploadMB    int
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Admin")
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("api.strict_envelope", false)
	v.SetDefault("session.backend", SessionBackendFile)
	v.SetDefault("session.file", defaultSessionFile())
	v.SetDefault("events.redis_channel", "gema:admin:mutations")
	v.SetDefault("nats.subject", "gema.admin.mutations")
	v.SetDefault("log.level", "info")
	v.SetDefault("watch.schedule", "@every 30s")
	v.SetDefault("upload.max_mb", 10)

	timeout, err := time.ParseDuration(v.GetString("api.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid api timeout: %w", err)
	}
	if timeout < 0 {
		return Config{}, fmt.Errorf("api timeout must not be negative")
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		BaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("api.base_url")), "/"),
		RequestTimeout: timeout,
		StrictEnvelope: v.GetBool("api.strict_envelope"),
		SessionBackend: strings.ToLower(strings.TrimSpace(v.GetString("session.backend"))),
		SessionFile:    v.GetString("session.file"),
		RedisURL:       v.GetString("redis.url"),
		EventsChannel:  v.GetString("events.redis_channel"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
		LogLevel:       strings.ToLower(v.GetString("log.level")),
		WatchSchedule:  v.GetString("watch.schedule"),
		MetricsAddr:    v.GetString("metrics.addr"),
		MaxUploadMB:    v.GetInt("upload.max_mb"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	switch cfg.SessionBackend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis session backend requires GEMA_REDIS_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}

	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".gema-admin", "session.json")
	}
	return filepath.Join(home, ".gema-admin", "session.json")
}

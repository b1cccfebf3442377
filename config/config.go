// Package config reads service settings from the environment.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

const (
	StorageAzure  = "azure"
	StorageMemory = "memory"
)

type Storage struct {
	Mode             string `env:"GARDEN_STORAGE_MODE" envDefault:"azure"`
	ConnectionString string `env:"STORAGE_CONNECTION_STRING"`
	EventsQueue      string `env:"DOMAIN_EVENTS_QUEUE" envDefault:"garden-events"`
}

type Redis struct {
	ConnectionString string        `env:"REDIS_CONNECTION_STRING"`
	DocumentCacheTTL time.Duration `env:"DOCUMENT_CACHE_TTL" envDefault:"5m"`
	DeduperTTL       time.Duration `env:"DEDUPER_TTL" envDefault:"24h"`
	ChannelPrefix    string        `env:"EVENTS_CHANNEL_PREFIX" envDefault:"garden-events"`
	FeedMaxEntries   int           `env:"FEED_MAX_ENTRIES" envDefault:"100"`
}

type Auth struct {
	Audience     string        `env:"AUTH0_AUDIENCE"`
	Domain       string        `env:"AUTH0_DOMAIN"`
	TestMode     string        `env:"AUTH0_TEST_MODE"`
	TestSecret   string        `env:"TEST_JWT_SECRET"`
	JWKSCacheTTL time.Duration `env:"JWKS_CACHE_TTL" envDefault:"15m"`
}

// Enabled reports whether tokens are verified against the Auth0 JWKS.
func (a Auth) Enabled() bool { return a.TestMode != "1" }

// Issuer is the expected iss claim for the configured tenant.
func (a Auth) Issuer() string { return "https://" + a.Domain + "/" }

// JWKSURL is the tenant's key set location.
func (a Auth) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.Domain)
}

// Config is the full service configuration.
type Config struct {
	Debug   bool   `env:"DEBUG"`
	Port    string `env:"FUNCTIONS_CUSTOMHANDLER_PORT" envDefault:"8080"`
	Storage Storage
	Redis   Redis
	Auth    Auth
}

// ListenAddr is the address the HTTP server binds to.
func (c Config) ListenAddr() string { return ":" + c.Port }

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Mode {
	case StorageMemory:
	case StorageAzure:
		if c.Storage.ConnectionString == "" {
			errs = append(errs, errors.New("missing STORAGE_CONNECTION_STRING"))
		}
		if c.Storage.EventsQueue == "" {
			errs = append(errs, errors.New("missing DOMAIN_EVENTS_QUEUE"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid GARDEN_STORAGE_MODE %q", c.Storage.Mode))
	}
	if c.Redis.DeduperTTL <= 0 {
		errs = append(errs, errors.New("invalid DEDUPER_TTL: must be greater than zero"))
	}
	if c.Redis.FeedMaxEntries <= 0 {
		errs = append(errs, errors.New("invalid FEED_MAX_ENTRIES: must be greater than zero"))
	}
	if c.Auth.Enabled() && (c.Auth.Audience == "" || c.Auth.Domain == "") {
		errs = append(errs, errors.New("missing Auth0 config"))
	}
	if !c.Auth.Enabled() && c.Auth.TestSecret == "" {
		errs = append(errs, errors.New("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1"))
	}
	return errors.Join(errs...)
}

// RedisOptions accepts either a redis:// URL or the
// "host:port,password=...,ssl=True" form used by Azure Cache for Redis.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("missing redis config")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	if strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("invalid redis connection string")
	}
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}

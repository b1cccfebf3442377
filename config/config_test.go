package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GARDEN_STORAGE_MODE", "memory")
	t.Setenv("AUTH0_TEST_MODE", "1")
	t.Setenv("TEST_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, "garden-events", cfg.Storage.EventsQueue)
	assert.Equal(t, 5*time.Minute, cfg.Redis.DocumentCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DeduperTTL)
	assert.Equal(t, 100, cfg.Redis.FeedMaxEntries)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Auth.JWKSCacheTTL)
}

func TestLoadTestModeRequiresSecret(t *testing.T) {
	t.Setenv("GARDEN_STORAGE_MODE", "memory")
	t.Setenv("AUTH0_TEST_MODE", "1")
	t.Setenv("TEST_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_JWT_SECRET")
}

func TestLoadAzureRequiresConnectionString(t *testing.T) {
	t.Setenv("GARDEN_STORAGE_MODE", "azure")
	t.Setenv("STORAGE_CONNECTION_STRING", "")
	t.Setenv("AUTH0_TEST_MODE", "1")
	t.Setenv("TEST_JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_CONNECTION_STRING")
}

func TestLoadRequiresAuth0(t *testing.T) {
	t.Setenv("GARDEN_STORAGE_MODE", "memory")
	t.Setenv("AUTH0_TEST_MODE", "")
	t.Setenv("AUTH0_AUDIENCE", "api://garden")
	t.Setenv("AUTH0_DOMAIN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Auth0")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DEDUPER_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestAuthURLs(t *testing.T) {
	a := Auth{Domain: "garden.eu.auth0.com"}
	assert.Equal(t, "https://garden.eu.auth0.com/", a.Issuer())
	assert.Equal(t, "https://garden.eu.auth0.com/.well-known/jwks.json", a.JWKSURL())
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		addr     string
		password string
		tls      bool
		wantErr  bool
	}{
		{name: "url", conn: "redis://:secret@localhost:6379/0", addr: "localhost:6379", password: "secret"},
		{name: "azure", conn: "garden.redis.cache.windows.net:6380,password=abc=,ssl=True,abortConnect=False", addr: "garden.redis.cache.windows.net:6380", password: "abc=", tls: true},
		{name: "bare host", conn: "localhost:6379", addr: "localhost:6379"},
		{name: "empty", conn: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := RedisOptions(tt.conn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, opts.Addr)
			assert.Equal(t, tt.password, opts.Password)
			assert.Equal(t, tt.tls, opts.TLSConfig != nil)
		})
	}
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return m, client
}

func TestRedisDeduperKeyNamespacing(t *testing.T) {
	m, client := newRedis(t)
	deduper := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "user", "k1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatalf("expected key to be added")
	}
	again, err := deduper.Add(ctx, "user", "k1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if again {
		t.Fatalf("expected duplicate key")
	}

	expectedKey := "user:" + dedupeKeyPrefix + ":k1"
	if !m.Exists(expectedKey) {
		t.Fatalf("expected redis key %q to exist", expectedKey)
	}
	if ttl := m.TTL(expectedKey); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %s", ttl)
	}

	if err := deduper.Remove(ctx, "user", "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Exists(expectedKey) {
		t.Fatalf("expected redis key %q to be removed", expectedKey)
	}
}

func TestIdempotentMiddleware(t *testing.T) {
	_, client := newRedis(t)
	logger, _ := test.NewNullLogger()
	deduper := NewRedisDeduper(client, time.Minute)

	status := http.StatusCreated
	calls := 0
	e := echo.New()
	handler := Idempotent(deduper, logger)(func(c echo.Context) error {
		calls++
		return c.NoContent(status)
	})
	do := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/plants", nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ownerKey, "user")
		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		return rec.Code
	}

	if code := do("k1"); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := do("k1"); code != http.StatusConflict {
		t.Fatalf("expected duplicate to get 409, got %d", code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}

	status = http.StatusBadRequest
	if code := do("k2"); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	status = http.StatusCreated
	if code := do("k2"); code != http.StatusCreated {
		t.Fatalf("expected failed key to be released, got %d", code)
	}

	if code := do(""); code != http.StatusCreated {
		t.Fatalf("expected request without key to pass, got %d", code)
	}
	if code := do(""); code != http.StatusCreated {
		t.Fatalf("expected request without key to pass again, got %d", code)
	}
}

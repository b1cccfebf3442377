package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// HeaderIdempotencyKey lets clients retry a write without applying it twice.
const HeaderIdempotencyKey = "Idempotency-Key"

const dedupeKeyPrefix = "idem"

// Deduper remembers idempotency keys per user.
type Deduper interface {
	// Add records the key and reports whether it was new.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove forgets a key so a failed request can be retried.
	Remove(ctx context.Context, userID, key string) error
}

// RedisDeduper stores idempotency keys in Redis so every instance sees them.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(userID, key string) string {
	return userID + ":" + dedupeKeyPrefix + ":" + key
}

func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(userID, key), 1, r.ttl).Result()
}

func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, r.key(userID, key)).Err()
}

// Idempotent rejects a repeated Idempotency-Key with 409. Requests without
// the header pass through. The key is released again when the request
// does not succeed.
func Idempotent(d Deduper, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" || d == nil {
				return next(c)
			}
			ctx := c.Request().Context()
			userID := owner(c)
			added, err := d.Add(ctx, userID, key)
			if err != nil {
				logger.WithError(err).Error("record idempotency key")
				return c.String(http.StatusInternalServerError, "idempotency check failed")
			}
			if !added {
				return c.String(http.StatusConflict, "duplicate request")
			}

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if rerr := d.Remove(context.WithoutCancel(ctx), userID, key); rerr != nil {
					logger.WithError(rerr).WithField("key", key).Warn("release idempotency key")
				}
			}
			return err
		}
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"gardenlog/events"
)

// Listener subscribes to published domain events.
type Listener interface {
	Listen(ctx context.Context) (*redis.PubSub, error)
}

// streamEvents pushes the caller's domain events as server-sent events.
// Browsers cannot set headers on EventSource, so the token may also come
// from the query string.
func (s *server) streamEvents(auth Authenticator, live Listener) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if token := c.QueryParam("token"); authHeader == "" && token != "" {
			authHeader = "Bearer " + token
		}
		userID, err := auth.UserIDFromAuthHeader(authHeader)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()
		ps, err := live.Listen(ctx)
		if err != nil {
			s.logger.WithError(err).Error("subscribe to live updates")
			return c.String(http.StatusServiceUnavailable, "live updates unavailable")
		}
		defer ps.Close()

		h := c.Response().Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set(echo.HeaderCacheControl, "no-cache")
		h.Set(echo.HeaderConnection, "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)
		flusher.Flush()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				env, err := events.DecodeEnvelope([]byte(msg.Payload))
				if err != nil || env.UserID != userID {
					continue
				}
				if _, err := fmt.Fprintf(c.Response(), "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Type, msg.Payload); err != nil {
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"gardenlog/docstore"
	"gardenlog/work"
)

const uowKey = "gardenlog.uow"

// UnitOfWork opens a fresh unit of work for every request.
func UnitOfWork(store *docstore.Store, opts ...work.Option) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(uowKey, work.New(store, opts...))
			return next(c)
		}
	}
}

func unitOfWork(c echo.Context) *work.UnitOfWork {
	uow, _ := c.Get(uowKey).(*work.UnitOfWork)
	return uow
}

// RequestLog writes one structured line per request once it finishes.
func RequestLog(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if err != nil {
				status = http.StatusInternalServerError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			fields := log.Fields{
				"method":   c.Request().Method,
				"route":    c.Path(),
				"status":   status,
				"total_ms": durationToMillis(time.Since(start)),
			}
			if uow := unitOfWork(c); uow != nil && uow.Root() != "" {
				fields["handler"] = uow.Root()
			}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.WithFields(fields).Info("request.metrics")
			return err
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// GzipRequestMiddleware decompresses gzip-encoded request bodies with
// echo's Decompress. Bodies that are not gzip are rejected with 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	decompress := middleware.Decompress()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := decompress(next)
		return func(c echo.Context) error {
			err := h(c)
			if errors.Is(err, gzip.ErrHeader) || errors.Is(err, io.ErrUnexpectedEOF) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			return err
		}
	}
}

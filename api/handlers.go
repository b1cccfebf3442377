// Package api exposes the command handlers over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"gardenlog/commands"
	"gardenlog/docstore"
	"gardenlog/feed"
	"gardenlog/work"
)

const (
	maxBodySize         = 1 << 20
	defaultActivitySize = 50
)

var errInvalidBody = errors.New("invalid body")

// Feed reads a user's recent activity.
type Feed interface {
	Recent(ctx context.Context, userID string, n int) ([]feed.Entry, error)
}

// Deps are the collaborators the routes need. Deduper, Feed and Live are
// optional.
type Deps struct {
	Store       *docstore.Store
	Handlers    *commands.Handlers
	Auth        Authenticator
	Deduper     Deduper
	Feed        Feed
	Live        Listener
	Logger      *log.Logger
	WorkOptions []work.Option
}

type server struct {
	handlers *commands.Handlers
	feed     Feed
	logger   *log.Logger
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &server{handlers: deps.Handlers, feed: deps.Feed, logger: logger}

	e.GET("/healthz", healthz(deps.Store))
	if deps.Live != nil {
		e.GET("/api/stream", s.streamEvents(deps.Auth, deps.Live))
	}

	g := e.Group("/api",
		RequestLog(logger),
		GzipRequestMiddleware(),
		RequireUser(deps.Auth),
		UnitOfWork(deps.Store, deps.WorkOptions...),
		Idempotent(deps.Deduper, logger),
	)

	g.GET("/plants", s.listPlants)
	g.POST("/plants", s.createPlant)
	g.GET("/plants/:id", s.getPlant)
	g.PUT("/plants/:id", s.updatePlant)
	g.DELETE("/plants/:id", s.deletePlant)

	g.GET("/harvest-cycles", s.listHarvestCycles)
	g.POST("/harvest-cycles", s.createHarvestCycle)
	g.GET("/harvest-cycles/:id", s.getHarvestCycle)
	g.PUT("/harvest-cycles/:id", s.updateHarvestCycle)
	g.DELETE("/harvest-cycles/:id", s.deleteHarvestCycle)
	g.POST("/harvest-cycles/:id/plants", s.addPlantToHarvestCycle)
	g.PUT("/harvest-cycles/:id/plants/:plantCycleId", s.updatePlantHarvestCycle)
	g.DELETE("/harvest-cycles/:id/plants/:plantCycleId", s.removePlantFromHarvestCycle)

	g.GET("/images", s.listImages)
	g.POST("/images", s.createImage)
	g.GET("/images/:id", s.getImage)
	g.PUT("/images/:id/label", s.updateImageLabel)
	g.DELETE("/images/:id", s.deleteImage)

	g.GET("/profile", s.getUserProfile)
	g.POST("/profile", s.createUserProfile)
	g.PUT("/profile", s.updateUserProfile)

	g.GET("/gardens", s.listGardens)
	g.POST("/gardens", s.createGarden)
	g.GET("/gardens/:id", s.getGarden)
	g.PUT("/gardens/:id", s.updateGarden)
	g.DELETE("/gardens/:id", s.deleteGarden)
	g.GET("/gardens/:id/weather", s.listWeather)
	g.POST("/gardens/:id/weather", s.recordWeather)

	g.GET("/activity", s.activity)
}

func healthz(store *docstore.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil || len(store.Names()) == 0 {
			return c.String(http.StatusServiceUnavailable, "no collections registered")
		}
		return c.NoContent(http.StatusOK)
	}
}

// bind decodes a JSON body, rejecting unknown fields.
func bind(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// fail maps handler errors onto status codes.
func (s *server) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errInvalidBody):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, commands.ErrNotFound):
		return c.String(http.StatusNotFound, "not found")
	case errors.Is(err, commands.ErrInvalid):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, commands.ErrConflict):
		return c.String(http.StatusConflict, err.Error())
	}
	s.logger.WithFields(log.Fields{
		"route":  c.Path(),
		"method": c.Request().Method,
	}).WithError(err).Error("request failed")
	return c.String(http.StatusInternalServerError, "internal error")
}

func (s *server) activity(c echo.Context) error {
	if s.feed == nil {
		return c.JSON(http.StatusOK, []feed.Entry{})
	}
	n := defaultActivitySize
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return c.String(http.StatusBadRequest, "invalid limit")
		}
		n = v
	}
	entries, err := s.feed.Recent(c.Request().Context(), owner(c), n)
	if err != nil {
		return s.fail(c, err)
	}
	if entries == nil {
		entries = []feed.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.Join(commands.ErrInvalid, err)
	}
	return t, nil
}

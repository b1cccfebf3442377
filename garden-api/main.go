// Command garden-api serves the GardenLog HTTP API.
package main

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gardenlog/api"
	"gardenlog/commands"
	"gardenlog/config"
	"gardenlog/docstore"
	"gardenlog/events"
	"gardenlog/feed"
	"gardenlog/repository"
	"gardenlog/work"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var rc *redis.Client
	if cfg.Redis.ConnectionString != "" {
		redisOpts, err := config.RedisOptions(cfg.Redis.ConnectionString)
		if err != nil {
			logger.Fatal(err)
		}
		rc = redis.NewClient(redisOpts)
		defer rc.Close()
	} else {
		logger.Warn("REDIS_CONNECTION_STRING not set; cache, idempotency and activity feed disabled")
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	if rc != nil && cfg.Redis.DocumentCacheTTL > 0 {
		store.Decorate(func(name string, t docstore.Table) docstore.Table {
			return docstore.NewCachedTable(name, t, rc, cfg.Redis.DocumentCacheTTL)
		})
	}

	publishers, err := newPublishers(cfg, rc)
	if err != nil {
		logger.Fatalf("publishers: %v", err)
	}
	dispatcher := events.NewDispatcher(publishers,
		events.WithLogger(logger),
		events.WithMetrics(events.NewMetrics(reg)),
	)

	auth, err := newAuth(cfg.Auth)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	deps := api.Deps{
		Store:       store,
		Handlers:    commands.New(dispatcher, logger),
		Auth:        auth,
		Logger:      logger,
		WorkOptions: []work.Option{work.WithLogger(logger), work.WithMetrics(work.NewMetrics(reg))},
	}
	if rc != nil {
		deps.Deduper = api.NewRedisDeduper(rc, cfg.Redis.DeduperTTL)
		deps.Feed = feed.NewRecorder(rc, feed.WithMaxEntries(cfg.Redis.FeedMaxEntries))
		deps.Live = events.NewRedisPublisher(rc, cfg.Redis.ChannelPrefix)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, api.HeaderIdempotencyKey},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "gardenlog",
		Registerer: reg,
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	api.Register(e, deps)

	e.Logger.Fatal(e.Start(cfg.ListenAddr()))
}

// openStore registers every collection. Memory mode creates nothing
// remotely; Azure tables are expected to exist, see storage-init.
func openStore(cfg config.Config) (*docstore.Store, error) {
	if cfg.Storage.Mode == config.StorageMemory {
		store := docstore.NewMemory()
		store.Register(repository.Collections()...)
		return store, nil
	}
	store, err := docstore.New(cfg.Storage.ConnectionString)
	if err != nil {
		return nil, err
	}
	store.Register(repository.Collections()...)
	return store, nil
}

// newPublishers sends events to the domain events queue. Without a queue
// (memory mode) the feed and live channels are fed directly.
func newPublishers(cfg config.Config, rc *redis.Client) ([]events.Publisher, error) {
	if cfg.Storage.Mode == config.StorageAzure {
		qp, err := events.NewQueuePublisher(cfg.Storage.ConnectionString, cfg.Storage.EventsQueue)
		if err != nil {
			return nil, err
		}
		return []events.Publisher{qp}, nil
	}
	if rc == nil {
		return nil, nil
	}
	recorder := feed.NewRecorder(rc, feed.WithMaxEntries(cfg.Redis.FeedMaxEntries))
	return []events.Publisher{
		events.PublisherFunc(func(ctx context.Context, env events.Envelope, _ []byte) error {
			return recorder.Record(ctx, env)
		}),
		events.NewRedisPublisher(rc, cfg.Redis.ChannelPrefix),
	}, nil
}

func newAuth(cfg config.Auth) (*api.Auth, error) {
	if !cfg.Enabled() {
		return api.NewTestAuth([]byte(cfg.TestSecret)), nil
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL(), keyfunc.Options{})
	if err != nil {
		return nil, err
	}
	return api.NewAuth(jwks, cfg.Audience, cfg.Issuer(), cfg.JWKSCacheTTL), nil
}

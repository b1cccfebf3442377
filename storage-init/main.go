// Command storage-init creates the tables and queues GardenLog needs.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"gardenlog/config"
	"gardenlog/docstore"
	"gardenlog/repository"
)

type settings struct {
	Debug   bool `env:"DEBUG"`
	Storage config.Storage
}

func main() {
	var cfg settings
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	if cfg.Storage.ConnectionString == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := docstore.New(cfg.Storage.ConnectionString)
	if err != nil {
		log.Fatalf("table service: %v", err)
	}
	store.Register(repository.Collections()...)
	if err := store.EnsureTables(ctx); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	log.WithField("tables", store.Names()).Info("tables ready")

	if err := createQueues(ctx, cfg.Storage.ConnectionString, cfg.Storage.EventsQueue); err != nil {
		log.Fatalf("create queues: %v", err)
	}

	log.Info("storage init complete")
}

func createQueues(ctx context.Context, connStr string, names ...string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		if _, err := q.Create(ctx, nil); err != nil && !queueExists(err) {
			return err
		}
		log.WithField("queue", name).Debug("queue ready")
	}
	return nil
}

func queueExists(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists"
}

// Command event-processor turns committed domain events into activity
// feed entries and live updates.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"gardenlog/config"
	"gardenlog/events"
	"gardenlog/feed"
)

type settings struct {
	Debug        bool          `env:"DEBUG"`
	PollInterval time.Duration `env:"EVENTS_POLL_INTERVAL" envDefault:"1s"`
	Storage      config.Storage
	Redis        config.Redis
}

type azureQueue struct {
	client *azqueue.QueueClient
}

func (q *azureQueue) Receive(ctx context.Context) (message, bool, error) {
	resp, err := q.client.DequeueMessage(ctx, nil)
	if err != nil {
		return message{}, false, err
	}
	if len(resp.Messages) == 0 {
		return message{}, false, nil
	}
	m := resp.Messages[0]
	return message{ID: *m.MessageID, PopReceipt: *m.PopReceipt, Text: *m.MessageText}, true, nil
}

func (q *azureQueue) Delete(ctx context.Context, msg message) error {
	_, err := q.client.DeleteMessage(ctx, msg.ID, msg.PopReceipt, nil)
	return err
}

func main() {
	var cfg settings
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("event processor starting")

	if cfg.Storage.ConnectionString == "" || cfg.Storage.EventsQueue == "" {
		log.Fatal("missing storage config")
	}
	qc, err := azqueue.NewQueueClientFromConnectionString(cfg.Storage.ConnectionString, cfg.Storage.EventsQueue, &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	})
	if err != nil {
		log.Fatalf("queue client: %v", err)
	}

	redisOpts, err := config.RedisOptions(cfg.Redis.ConnectionString)
	if err != nil {
		log.Fatal(err)
	}
	rc := redis.NewClient(redisOpts)
	defer rc.Close()

	p := &processor{
		queue:     &azureQueue{client: qc},
		feed:      feed.NewRecorder(rc, feed.WithMaxEntries(cfg.Redis.FeedMaxEntries)),
		publisher: events.NewRedisPublisher(rc, cfg.Redis.ChannelPrefix),
		logger:    log.StandardLogger(),
		idle:      cfg.PollInterval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	p.run(ctx)
	log.Info("event processor stopped")
}

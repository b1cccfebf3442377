package events

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/redis/go-redis/v9"
)

// Publisher delivers one encoded envelope.
type Publisher interface {
	Publish(ctx context.Context, env Envelope, payload []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, env Envelope, payload []byte) error

func (f PublisherFunc) Publish(ctx context.Context, env Envelope, payload []byte) error {
	return f(ctx, env, payload)
}

// QueuePublisher enqueues envelopes on an Azure Storage queue.
type QueuePublisher struct {
	send func(ctx context.Context, text string) error
}

// NewQueuePublisher connects to queue in the account named by connStr.
func NewQueuePublisher(connStr, queue string) (*QueuePublisher, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	qc, err := azqueue.NewQueueClientFromConnectionString(connStr, queue, &opts)
	if err != nil {
		return nil, err
	}
	return &QueuePublisher{send: func(ctx context.Context, text string) error {
		_, err := qc.EnqueueMessage(ctx, text, nil)
		return err
	}}, nil
}

func (p *QueuePublisher) Publish(ctx context.Context, env Envelope, payload []byte) error {
	return p.send(ctx, string(payload))
}

// RedisPublisher publishes envelopes on a channel per entity type.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the channel envelopes of entityType are published on.
func (p *RedisPublisher) Channel(entityType string) string {
	if p.prefix == "" {
		return entityType
	}
	return p.prefix + ":" + entityType
}

func (p *RedisPublisher) Publish(ctx context.Context, env Envelope, payload []byte) error {
	return p.client.Publish(ctx, p.Channel(string(env.EntityType)), payload).Err()
}

// Listen subscribes to the channels of every entity type. The caller
// closes the returned subscription.
func (p *RedisPublisher) Listen(ctx context.Context) (*redis.PubSub, error) {
	ps := p.client.PSubscribe(ctx, p.Channel("*"))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

// Package feed keeps a short per-user activity history in Redis.
package feed

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"gardenlog/domain"
	"gardenlog/events"
)

const (
	defaultMaxEntries = 100
	defaultTTL        = 30 * 24 * time.Hour
)

// Entry is one line of a user's activity feed.
type Entry struct {
	EventID    string                `json:"eventId"`
	Type       domain.TriggerKind    `json:"type"`
	EntityType domain.EntityType     `json:"entityType"`
	EntityID   string                `json:"entityId"`
	Related    *domain.RelatedEntity `json:"related,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
}

type Recorder struct {
	client     *redis.Client
	maxEntries int64
	ttl        time.Duration
}

type Option func(*Recorder)

func WithMaxEntries(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxEntries = int64(n)
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func NewRecorder(client *redis.Client, opts ...Option) *Recorder {
	r := &Recorder{client: client, maxEntries: defaultMaxEntries, ttl: defaultTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(userID string) string { return "feed:" + userID }

func seenKey(userID, eventID string) string { return "feed:" + userID + ":seen:" + eventID }

// Record prepends env to its owner's feed, trimming the oldest entries.
// An event already recorded within the feed TTL is skipped, so
// redelivered messages do not show up twice.
func (r *Recorder) Record(ctx context.Context, env events.Envelope) error {
	if env.UserID == "" {
		return nil
	}
	var seen string
	if env.ID != "" {
		seen = seenKey(env.UserID, env.ID)
		fresh, err := r.client.SetNX(ctx, seen, 1, r.ttl).Result()
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
	}
	if err := r.push(ctx, env); err != nil {
		if seen != "" {
			_ = r.client.Del(context.WithoutCancel(ctx), seen).Err()
		}
		return err
	}
	return nil
}

func (r *Recorder) push(ctx context.Context, env events.Envelope) error {
	data, err := sonic.Marshal(Entry{
		EventID:    env.ID,
		Type:       env.Type,
		EntityType: env.EntityType,
		EntityID:   env.EntityID,
		Related:    env.Related,
		OccurredAt: env.OccurredAt,
	})
	if err != nil {
		return err
	}
	k := key(env.UserID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, k, data)
	pipe.LTrim(ctx, k, 0, r.maxEntries-1)
	pipe.Expire(ctx, k, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n entries, newest first.
func (r *Recorder) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	if n <= 0 || int64(n) > r.maxEntries {
		n = int(r.maxEntries)
	}
	raw, err := r.client.LRange(ctx, key(userID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := sonic.UnmarshalString(s, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

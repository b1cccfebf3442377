package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// deletedMarker is cached in place of a deleted row for deletedTTL so a
// read that started before the delete cannot put the row back.
const (
	deletedMarker = "-"
	deletedTTL    = 30 * time.Second
)

// CachedTable wraps a Table with Redis-backed caching for point reads.
// Writes go to the base table first and then overwrite the cached row.
// Read misses only fill the cache when no write has claimed the key since.
type CachedTable struct {
	base  Table
	redis *redis.Client
	ttl   time.Duration
	name  string
}

// NewCachedTable creates a caching wrapper. name keeps the keys of
// different tables apart.
func NewCachedTable(name string, base Table, client *redis.Client, ttl time.Duration) *CachedTable {
	if base == nil {
		panic("docstore.NewCachedTable: base table is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedTable{base: base, redis: client, ttl: ttl, name: name}
}

// Unwrap returns the underlying table.
func (c *CachedTable) Unwrap() Table { return c.base }

func (c *CachedTable) Insert(ctx context.Context, row Row) error {
	if err := c.base.Insert(ctx, row); err != nil {
		return err
	}
	c.write(ctx, row)
	return nil
}

func (c *CachedTable) Replace(ctx context.Context, row Row) error {
	if err := c.base.Replace(ctx, row); err != nil {
		return err
	}
	c.write(ctx, row)
	return nil
}

func (c *CachedTable) Delete(ctx context.Context, partitionKey, rk string) error {
	if err := c.base.Delete(ctx, partitionKey, rk); err != nil {
		return err
	}
	c.markDeleted(ctx, partitionKey, rk)
	return nil
}

func (c *CachedTable) Get(ctx context.Context, partitionKey, rk string) (Row, error) {
	if row, ok := c.load(ctx, partitionKey, rk); ok {
		return row, nil
	}
	row, err := c.base.Get(ctx, partitionKey, rk)
	if err != nil {
		return Row{}, err
	}
	c.fill(ctx, row)
	return row, nil
}

// Query is never cached; listings change with every write to a partition.
func (c *CachedTable) Query(ctx context.Context, q Query) ([]Row, error) {
	return c.base.Query(ctx, q)
}

func (c *CachedTable) load(ctx context.Context, partitionKey, rk string) (Row, bool) {
	if c.redis == nil {
		return Row{}, false
	}
	key := c.cacheKey(partitionKey, rk)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the base table without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return Row{}, false
	}
	if string(data) == deletedMarker {
		return Row{}, false
	}
	var row Row
	if err := sonic.Unmarshal(data, &row); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return Row{}, false
	}
	return row, true
}

// fill caches a row read from the base table unless a write got there
// first.
func (c *CachedTable) fill(ctx context.Context, row Row) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(row)
	if err != nil {
		return
	}
	_ = c.redis.SetNX(ctx, c.cacheKey(row.PartitionKey, row.RowKey), data, c.ttl).Err()
}

func (c *CachedTable) write(ctx context.Context, row Row) {
	if c.redis == nil {
		return
	}
	key := c.cacheKey(row.PartitionKey, row.RowKey)
	data, err := sonic.Marshal(row)
	if err != nil || c.ttl == 0 {
		_ = c.redis.Del(ctx, key).Err()
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		_ = c.redis.Del(ctx, key).Err()
	}
}

func (c *CachedTable) markDeleted(ctx context.Context, partitionKey, rk string) {
	if c.redis == nil {
		return
	}
	key := c.cacheKey(partitionKey, rk)
	if c.ttl == 0 {
		_ = c.redis.Del(ctx, key).Err()
		return
	}
	if err := c.redis.Set(ctx, key, deletedMarker, deletedTTL).Err(); err != nil {
		_ = c.redis.Del(ctx, key).Err()
	}
}

func (c *CachedTable) cacheKey(partitionKey, rk string) string {
	return "doc:" + c.name + ":" + partitionKey + ":" + rk
}

package docstore

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

type index[T any] struct {
	property string
	value    func(*T) string
}

// Option configures a Collection.
type Option[T any] func(*Collection[T])

// WithIndex copies value(doc) into the queryable property on every write.
func WithIndex[T any](property string, value func(*T) string) Option[T] {
	return func(c *Collection[T]) {
		c.indexes = append(c.indexes, index[T]{property: property, value: value})
	}
}

// Collection is a typed handle over a named table. Documents are encoded
// as JSON.
type Collection[T any] struct {
	name    string
	table   Table
	indexes []index[T]
}

// GetCollection returns a typed handle for the collection registered as
// name.
func GetCollection[T any](s *Store, name string, opts ...Option[T]) (*Collection[T], error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	c := &Collection[T]{name: name, table: t}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Insert(ctx context.Context, partitionKey, rowKey string, doc *T) error {
	row, err := c.row(partitionKey, rowKey, doc)
	if err != nil {
		return err
	}
	return c.wrap(c.table.Insert(ctx, row))
}

func (c *Collection[T]) Replace(ctx context.Context, partitionKey, rowKey string, doc *T) error {
	row, err := c.row(partitionKey, rowKey, doc)
	if err != nil {
		return err
	}
	return c.wrap(c.table.Replace(ctx, row))
}

func (c *Collection[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	return c.wrap(c.table.Delete(ctx, partitionKey, rowKey))
}

func (c *Collection[T]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	row, err := c.table.Get(ctx, partitionKey, rowKey)
	if err != nil {
		return nil, c.wrap(err)
	}
	return c.decode(row)
}

// Find returns the documents matching q in table order.
func (c *Collection[T]) Find(ctx context.Context, q Query) ([]*T, error) {
	rows, err := c.table.Query(ctx, q)
	if err != nil {
		return nil, c.wrap(err)
	}
	docs := make([]*T, 0, len(rows))
	for _, row := range rows {
		doc, err := c.decode(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Collection[T]) row(partitionKey, rowKey string, doc *T) (Row, error) {
	if partitionKey == "" || rowKey == "" {
		return Row{}, fmt.Errorf("%s: partition and row key are required", c.name)
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		return Row{}, fmt.Errorf("%s: encode %s: %w", c.name, rowKey, err)
	}
	row := Row{PartitionKey: partitionKey, RowKey: rowKey, Data: data}
	if len(c.indexes) > 0 {
		row.Properties = make(map[string]string, len(c.indexes))
		for _, idx := range c.indexes {
			row.Properties[idx.property] = idx.value(doc)
		}
	}
	return row, nil
}

func (c *Collection[T]) decode(row Row) (*T, error) {
	var doc T
	if err := sonic.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", c.name, row.RowKey, err)
	}
	return &doc, nil
}

func (c *Collection[T]) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

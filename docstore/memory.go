package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type rowKey struct{ pk, rk string }

// MemoryTable keeps rows in process memory. It backs local development
// and tests.
type MemoryTable struct {
	mu   sync.RWMutex
	rows map[rowKey]Row
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rows: map[rowKey]Row{}}
}

func (t *MemoryTable) Insert(ctx context.Context, row Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := rowKey{row.PartitionKey, row.RowKey}
	if _, ok := t.rows[k]; ok {
		return fmt.Errorf("%w: %s/%s", ErrConflict, row.PartitionKey, row.RowKey)
	}
	t.rows[k] = row.clone()
	return nil
}

func (t *MemoryTable) Replace(ctx context.Context, row Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[rowKey{row.PartitionKey, row.RowKey}] = row.clone()
	return nil
}

func (t *MemoryTable) Delete(ctx context.Context, partitionKey, rk string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, rowKey{partitionKey, rk})
	return nil
}

func (t *MemoryTable) Get(ctx context.Context, partitionKey, rk string) (Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[rowKey{partitionKey, rk}]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s/%s", ErrNotFound, partitionKey, rk)
	}
	return row.clone(), nil
}

// Query returns matching rows ordered by partition and row key, the order
// Azure Tables uses.
func (t *MemoryTable) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	rows := []Row{}
	for _, row := range t.rows {
		if q.matches(row) {
			rows = append(rows, row.clone())
		}
	}
	t.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PartitionKey != rows[j].PartitionKey {
			return rows[i].PartitionKey < rows[j].PartitionKey
		}
		return rows[i].RowKey < rows[j].RowKey
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// Len reports the number of stored rows.
func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

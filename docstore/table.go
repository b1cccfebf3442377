// Package docstore stores JSON documents in Azure Tables style partitions.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrConflict          = errors.New("document already exists")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Row is one stored document. Properties hold the indexed, queryable
// values; Data holds the encoded document.
type Row struct {
	PartitionKey string            `json:"pk"`
	RowKey       string            `json:"rk"`
	Properties   map[string]string `json:"props,omitempty"`
	Data         []byte            `json:"data"`
}

func (r Row) clone() Row {
	out := Row{PartitionKey: r.PartitionKey, RowKey: r.RowKey}
	if r.Properties != nil {
		out.Properties = make(map[string]string, len(r.Properties))
		for k, v := range r.Properties {
			out.Properties[k] = v
		}
	}
	if r.Data != nil {
		out.Data = append([]byte(nil), r.Data...)
	}
	return out
}

// Table is the minimal write and read surface a collection needs.
type Table interface {
	// Insert fails with ErrConflict when the key is taken.
	Insert(ctx context.Context, row Row) error
	// Replace creates or overwrites the row.
	Replace(ctx context.Context, row Row) error
	// Delete is a no-op for missing rows.
	Delete(ctx context.Context, partitionKey, rowKey string) error
	Get(ctx context.Context, partitionKey, rowKey string) (Row, error)
	Query(ctx context.Context, q Query) ([]Row, error)
}

type Op string

const (
	Eq Op = "eq"
	Ne Op = "ne"
	Gt Op = "gt"
	Ge Op = "ge"
	Lt Op = "lt"
	Le Op = "le"
)

// Condition compares an indexed property with a value. Values compare as
// strings, so timestamps must be stored in a sortable layout.
type Condition struct {
	Property string
	Op       Op
	Value    string
}

func (c Condition) matches(props map[string]string) bool {
	v, ok := props[c.Property]
	if !ok {
		return false
	}
	cmp := strings.Compare(v, c.Value)
	switch c.Op {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	}
	return false
}

// Query selects rows of one partition (all partitions when PartitionKey is
// empty) matching every condition. Limit <= 0 means no limit.
type Query struct {
	PartitionKey string
	Conditions   []Condition
	Limit        int
}

// Where returns a copy of q with an extra condition.
func (q Query) Where(property string, op Op, value string) Query {
	conds := make([]Condition, len(q.Conditions), len(q.Conditions)+1)
	copy(conds, q.Conditions)
	q.Conditions = append(conds, Condition{Property: property, Op: op, Value: value})
	return q
}

func (q Query) validate() error {
	for _, c := range q.Conditions {
		switch c.Op {
		case Eq, Ne, Gt, Ge, Lt, Le:
		default:
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
		if c.Property == "" || strings.ContainsAny(c.Property, " '()") {
			return fmt.Errorf("invalid property name %q", c.Property)
		}
	}
	return nil
}

// Filter renders q as an OData filter expression.
func (q Query) Filter() string {
	var parts []string
	if q.PartitionKey != "" {
		parts = append(parts, "PartitionKey eq "+quote(q.PartitionKey))
	}
	for _, c := range q.Conditions {
		parts = append(parts, c.Property+" "+string(c.Op)+" "+quote(c.Value))
	}
	return strings.Join(parts, " and ")
}

func (q Query) matches(r Row) bool {
	if q.PartitionKey != "" && r.PartitionKey != q.PartitionKey {
		return false
	}
	for _, c := range q.Conditions {
		if !c.matches(r.Properties) {
			return false
		}
	}
	return true
}

func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

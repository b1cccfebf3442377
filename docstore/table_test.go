package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestQueryFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"empty", Query{}, ""},
		{"partition only", Query{PartitionKey: "user-1"}, "PartitionKey eq 'user-1'"},
		{
			"conditions",
			Query{PartitionKey: "user-1"}.Where("GardenID", Eq, "g1").Where("ObservedAt", Ge, "2024-01-01"),
			"PartitionKey eq 'user-1' and GardenID eq 'g1' and ObservedAt ge '2024-01-01'",
		},
		{"quotes escaped", Query{PartitionKey: "o'brien"}, "PartitionKey eq 'o''brien'"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.Filter(); got != tc.want {
				t.Fatalf("filter = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQueryWhereDoesNotShareConditions(t *testing.T) {
	base := Query{PartitionKey: "p"}.Where("A", Eq, "1")
	a := base.Where("B", Eq, "2")
	b := base.Where("C", Eq, "3")
	if a.Conditions[1].Property != "B" || b.Conditions[1].Property != "C" {
		t.Fatalf("conditions aliased: %+v %+v", a.Conditions, b.Conditions)
	}
}

func TestQueryRejectsBadOperator(t *testing.T) {
	tbl := NewMemoryTable()
	_, err := tbl.Query(context.Background(), Query{Conditions: []Condition{{Property: "A", Op: "like", Value: "x"}}})
	if err == nil {
		t.Fatal("expected error for unsupported operator")
	}
}

func TestMemoryTable(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()

	row := Row{PartitionKey: "u1", RowKey: "r1", Properties: map[string]string{"Kind": "a"}, Data: []byte(`{}`)}
	if err := tbl.Insert(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tbl.Insert(ctx, row); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	row.Properties["Kind"] = "mutated"
	got, err := tbl.Get(ctx, "u1", "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Properties["Kind"] != "a" {
		t.Fatalf("stored row aliased caller map: %+v", got)
	}

	if err := tbl.Replace(ctx, Row{PartitionKey: "u1", RowKey: "r1", Properties: map[string]string{"Kind": "b"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := tbl.Delete(ctx, "u1", "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tbl.Delete(ctx, "u1", "r1"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := tbl.Get(ctx, "u1", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryTableQueryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	for i := 5; i > 0; i-- {
		_ = tbl.Insert(ctx, Row{
			PartitionKey: "u1",
			RowKey:       fmt.Sprintf("r%d", i),
			Properties:   map[string]string{"Day": fmt.Sprintf("2024-01-0%d", i)},
		})
	}
	_ = tbl.Insert(ctx, Row{PartitionKey: "u2", RowKey: "r1", Properties: map[string]string{"Day": "2024-01-09"}})

	rows, err := tbl.Query(ctx, Query{PartitionKey: "u1", Limit: 2}.Where("Day", Gt, "2024-01-02"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 || rows[0].RowKey != "r3" || rows[1].RowKey != "r4" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	all, err := tbl.Query(ctx, Query{}.Where("Day", Ne, "2024-01-01"))
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 5 || all[4].PartitionKey != "u2" {
		t.Fatalf("unexpected rows: %+v", all)
	}
}

func TestEntityEncoding(t *testing.T) {
	row := Row{PartitionKey: "u1", RowKey: "r1", Properties: map[string]string{"GardenID": "g1"}, Data: []byte(`{"name":"x"}`)}
	payload, err := encodeEntity(row)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Azure adds metadata that must not leak into properties.
	payload = append(payload[:len(payload)-1], []byte(`,"odata.etag":"W/1","Timestamp":"2024-01-01T00:00:00Z","Timestamp@odata.type":"Edm.DateTime","Count":3}`)...)

	got, err := decodeEntity(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PartitionKey != "u1" || got.RowKey != "r1" || string(got.Data) != `{"name":"x"}` {
		t.Fatalf("unexpected row: %+v", got)
	}
	if len(got.Properties) != 1 || got.Properties["GardenID"] != "g1" {
		t.Fatalf("unexpected properties: %+v", got.Properties)
	}

	if _, err := encodeEntity(Row{Properties: map[string]string{"RowKey": "x"}}); err == nil {
		t.Fatal("expected reserved property error")
	}
}

func TestMapResponseError(t *testing.T) {
	if err := mapResponseError(&azcore.ResponseError{StatusCode: 404}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("404 mapped to %v", err)
	}
	if err := mapResponseError(fmt.Errorf("wrapped: %w", &azcore.ResponseError{StatusCode: 409})); !errors.Is(err, ErrConflict) {
		t.Fatalf("409 mapped to %v", err)
	}
	boom := &azcore.ResponseError{StatusCode: 500}
	if err := mapResponseError(boom); err != boom {
		t.Fatalf("500 mapped to %v", err)
	}
	if mapResponseError(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}

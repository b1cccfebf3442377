package docstore

import (
	"context"
	"errors"
	"testing"
)

type seedPacket struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Variety string `json:"variety"`
	Count   int    `json:"count"`
}

func newPackets(t *testing.T) (*Store, *Collection[seedPacket]) {
	t.Helper()
	s := NewMemory()
	s.Register("Packets")
	c, err := GetCollection(s, "Packets", WithIndex("Variety", func(p *seedPacket) string { return p.Variety }))
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	return s, c
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, c := newPackets(t)
	doc := &seedPacket{ID: "p1", Owner: "u1", Variety: "roma", Count: 20}

	if err := c.Insert(ctx, doc.Owner, doc.ID, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := c.Get(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *doc {
		t.Fatalf("got %+v, want %+v", got, doc)
	}

	err = c.Insert(ctx, doc.Owner, doc.ID, doc)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error()[:8] != "Packets:" {
		t.Fatalf("error should name the collection: %v", err)
	}
}

func TestCollectionFindByIndex(t *testing.T) {
	ctx := context.Background()
	_, c := newPackets(t)
	for _, p := range []seedPacket{
		{ID: "a", Owner: "u1", Variety: "roma"},
		{ID: "b", Owner: "u1", Variety: "cherry"},
		{ID: "c", Owner: "u1", Variety: "roma"},
		{ID: "d", Owner: "u2", Variety: "roma"},
	} {
		p := p
		if err := c.Replace(ctx, p.Owner, p.ID, &p); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}

	docs, err := c.Find(ctx, Query{PartitionKey: "u1"}.Where("Variety", Eq, "roma"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "c" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestCollectionRequiresKeys(t *testing.T) {
	_, c := newPackets(t)
	if err := c.Insert(context.Background(), "", "p1", &seedPacket{}); err == nil {
		t.Fatal("expected error for missing partition key")
	}
}

func TestStoreUnknownCollection(t *testing.T) {
	s := NewMemory()
	if _, err := GetCollection[seedPacket](s, "Nope"); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected unknown collection, got %v", err)
	}
}

type createCounter struct {
	*MemoryTable
	created int
}

func (c *createCounter) Create(context.Context) error {
	c.created++
	return nil
}

func TestStoreDecorateAndEnsureTables(t *testing.T) {
	s := NewMemory()
	s.Register("B", "A")
	counter := &createCounter{MemoryTable: NewMemoryTable()}
	s.Attach("C", counter)

	s.Decorate(func(name string, t Table) Table { return NewCachedTable(name, t, nil, 0) })

	if got := s.Names(); len(got) != 3 || got[0] != "A" || got[2] != "C" {
		t.Fatalf("unexpected names: %v", got)
	}
	tbl, _ := s.Table("C")
	if _, ok := tbl.(*CachedTable); !ok {
		t.Fatalf("expected decorated table, got %T", tbl)
	}
	if err := s.EnsureTables(context.Background()); err != nil {
		t.Fatalf("ensure tables: %v", err)
	}
	if counter.created != 1 {
		t.Fatalf("expected create through the cache wrapper, got %d", counter.created)
	}

	// Register keeps an existing table.
	s.Register("C")
	if again, _ := s.Table("C"); again != tbl {
		t.Fatal("register replaced an existing table")
	}
}

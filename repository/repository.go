// Package repository maps aggregates onto document collections.
//
// Writes are queued on the unit of work and applied at commit. Reads go to
// the store right away and never look at the queue, so an aggregate added
// in the current unit of work cannot be read back before commit.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gardenlog/docstore"
	"gardenlog/domain"
	"gardenlog/work"
)

// Collection names.
const (
	PlantsCollection         = "Plants"
	HarvestCyclesCollection  = "HarvestCycles"
	ImagesCollection         = "Images"
	UserProfilesCollection   = "UserProfiles"
	GardensCollection        = "Gardens"
	WeatherUpdatesCollection = "WeatherUpdates"
)

// Collections lists every collection the repositories use.
func Collections() []string {
	return []string{
		PlantsCollection,
		HarvestCyclesCollection,
		ImagesCollection,
		UserProfilesCollection,
		GardensCollection,
		WeatherUpdatesCollection,
	}
}

// ErrNotFound is returned by reads of missing aggregates.
var ErrNotFound = errors.New("not found")

// aggregate constrains P to a pointer to T implementing domain.Aggregate.
type aggregate[T any] interface {
	*T
	domain.Aggregate
}

// Repository is the generic deferred-write repository every aggregate
// repository builds on.
type Repository[T any, P aggregate[T]] struct {
	uow        *work.UnitOfWork
	collection *docstore.Collection[T]
	entity     domain.EntityType
}

func newRepository[T any, P aggregate[T]](uow *work.UnitOfWork, name string, entity domain.EntityType, opts ...docstore.Option[T]) (*Repository[T, P], error) {
	c, err := work.GetCollection[T](uow, name, opts...)
	if err != nil {
		return nil, err
	}
	return &Repository[T, P]{uow: uow, collection: c, entity: entity}, nil
}

// Add queues an insert of a.
func (r *Repository[T, P]) Add(a P) {
	doc := (*T)(a)
	r.uow.AddCommand(work.Command{
		Op:         work.OpInsert,
		Collection: r.collection.Name(),
		Partition:  a.Partition(),
		DocumentID: a.EntityID(),
		Execute: func(ctx context.Context) error {
			return r.collection.Insert(ctx, P(doc).Partition(), P(doc).EntityID(), doc)
		},
	})
	r.uow.Track(a)
}

// Update queues a full replace of a, even when nothing changed.
func (r *Repository[T, P]) Update(a P) {
	doc := (*T)(a)
	r.uow.AddCommand(work.Command{
		Op:         work.OpReplace,
		Collection: r.collection.Name(),
		Partition:  a.Partition(),
		DocumentID: a.EntityID(),
		Execute: func(ctx context.Context) error {
			return r.collection.Replace(ctx, P(doc).Partition(), P(doc).EntityID(), doc)
		},
	})
	r.uow.Track(a)
}

// IsAdded reports whether a is queued for insert in this unit of work. The
// insert writes a's state as of commit, so later changes need no replace.
func (r *Repository[T, P]) IsAdded(a P) bool {
	return r.uow.Queued(work.OpInsert, r.collection.Name(), a.Partition(), a.EntityID())
}

// Delete queues removal of the document. Pass the loaded aggregate as src
// so its deletion event is dispatched; nil skips tracking.
func (r *Repository[T, P]) Delete(owner, id string, src domain.EventSource) {
	r.uow.AddCommand(work.Command{
		Op:         work.OpDelete,
		Collection: r.collection.Name(),
		Partition:  owner,
		DocumentID: id,
		Execute: func(ctx context.Context) error {
			return r.collection.Delete(ctx, owner, id)
		},
	})
	if src != nil {
		r.uow.Track(src)
	}
}

// GetByID reads the committed document.
func (r *Repository[T, P]) GetByID(ctx context.Context, owner, id string) (P, error) {
	doc, err := r.collection.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", r.entity, id, ErrNotFound)
		}
		return nil, err
	}
	return P(doc), nil
}

// Find returns committed documents matching q.
func (r *Repository[T, P]) Find(ctx context.Context, q docstore.Query) ([]P, error) {
	docs, err := r.collection.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]P, len(docs))
	for i, d := range docs {
		out[i] = P(d)
	}
	return out, nil
}

// ListByOwner returns every aggregate in owner's partition.
func (r *Repository[T, P]) ListByOwner(ctx context.Context, owner string) ([]P, error) {
	return r.Find(ctx, docstore.Query{PartitionKey: owner})
}

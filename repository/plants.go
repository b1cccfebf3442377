package repository

import (
	"context"

	"gardenlog/docstore"
	"gardenlog/domain"
	"gardenlog/work"
)

type Plants struct {
	*Repository[domain.Plant, *domain.Plant]
}

func NewPlants(uow *work.UnitOfWork) (*Plants, error) {
	r, err := newRepository[domain.Plant, *domain.Plant](uow, PlantsCollection, domain.EntityPlant,
		docstore.WithIndex("Lifecycle", func(p *domain.Plant) string { return string(p.Lifecycle) }),
	)
	if err != nil {
		return nil, err
	}
	return &Plants{r}, nil
}

// ByLifecycle lists owner's plants of one lifecycle.
func (r *Plants) ByLifecycle(ctx context.Context, owner string, lc domain.PlantLifecycle) ([]*domain.Plant, error) {
	return r.Find(ctx, docstore.Query{PartitionKey: owner}.Where("Lifecycle", docstore.Eq, string(lc)))
}

type HarvestCycles struct {
	*Repository[domain.HarvestCycle, *domain.HarvestCycle]
}

func NewHarvestCycles(uow *work.UnitOfWork) (*HarvestCycles, error) {
	r, err := newRepository[domain.HarvestCycle, *domain.HarvestCycle](uow, HarvestCyclesCollection, domain.EntityHarvestCycle,
		docstore.WithIndex("GardenID", func(h *domain.HarvestCycle) string { return h.GardenID }),
	)
	if err != nil {
		return nil, err
	}
	return &HarvestCycles{r}, nil
}

func (r *HarvestCycles) ByGarden(ctx context.Context, owner, gardenID string) ([]*domain.HarvestCycle, error) {
	return r.Find(ctx, docstore.Query{PartitionKey: owner}.Where("GardenID", docstore.Eq, gardenID))
}

type Images struct {
	*Repository[domain.Image, *domain.Image]
}

func NewImages(uow *work.UnitOfWork) (*Images, error) {
	r, err := newRepository[domain.Image, *domain.Image](uow, ImagesCollection, domain.EntityImage,
		docstore.WithIndex("RelatedEntityType", func(i *domain.Image) string { return string(i.RelatedEntity.Type) }),
		docstore.WithIndex("RelatedEntityID", func(i *domain.Image) string { return i.RelatedEntity.ID }),
	)
	if err != nil {
		return nil, err
	}
	return &Images{r}, nil
}

// ForEntity lists the images attached to related.
func (r *Images) ForEntity(ctx context.Context, owner string, related domain.RelatedEntity) ([]*domain.Image, error) {
	q := docstore.Query{PartitionKey: owner}.
		Where("RelatedEntityType", docstore.Eq, string(related.Type)).
		Where("RelatedEntityID", docstore.Eq, related.ID)
	return r.Find(ctx, q)
}

package commands

import (
	"context"

	"gardenlog/domain"
	"gardenlog/repository"
	"gardenlog/work"
)

func (h *Handlers) CreatePlant(ctx context.Context, uow *work.UnitOfWork, owner string, f domain.PlantFields) (*domain.Plant, error) {
	uow.Initialize(CreatePlantHandler)
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return nil, err
	}
	p, err := domain.NewPlant(owner, f)
	if err != nil {
		return nil, err
	}
	plants.Add(p)
	if err := h.commit(ctx, uow, CreatePlantHandler); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handlers) UpdatePlant(ctx context.Context, uow *work.UnitOfWork, owner, id string, f domain.PlantFields) (*domain.Plant, error) {
	uow.Initialize(UpdatePlantHandler)
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return nil, err
	}
	p, err := plants.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(f); err != nil {
		return nil, err
	}
	if p.IsModified() {
		plants.Update(p)
	}
	if err := h.commit(ctx, uow, UpdatePlantHandler); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handlers) DeletePlant(ctx context.Context, uow *work.UnitOfWork, owner, id string) error {
	uow.Initialize(DeletePlantHandler)
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return err
	}
	p, err := plants.GetByID(ctx, owner, id)
	if err != nil {
		return err
	}
	p.MarkDeleted()
	plants.Delete(owner, id, p)
	return h.commit(ctx, uow, DeletePlantHandler)
}

func (h *Handlers) GetPlant(ctx context.Context, uow *work.UnitOfWork, owner, id string) (*domain.Plant, error) {
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return nil, err
	}
	return plants.GetByID(ctx, owner, id)
}

// ListPlants lists owner's plants, optionally of a single lifecycle.
func (h *Handlers) ListPlants(ctx context.Context, uow *work.UnitOfWork, owner string, lc domain.PlantLifecycle) ([]*domain.Plant, error) {
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return nil, err
	}
	if lc != "" {
		return plants.ByLifecycle(ctx, owner, lc)
	}
	return plants.ListByOwner(ctx, owner)
}

package commands

import (
	"context"

	"gardenlog/domain"
	"gardenlog/repository"
	"gardenlog/work"
)

// CyclePlant names a catalog plant to sow in a harvest cycle.
type CyclePlant struct {
	PlantID string `json:"plantId"`
	domain.PlantHarvestCycleFields
}

// CreateHarvestCycle creates the cycle and sows the initial plants through
// AddPlantToHarvestCycle. Everything is written in one commit.
func (h *Handlers) CreateHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner string, f domain.HarvestCycleFields, plants []CyclePlant) (*domain.HarvestCycle, error) {
	uow.Initialize(CreateHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return nil, err
	}
	if f.GardenID != "" {
		if err := h.requireGarden(ctx, uow, owner, f.GardenID); err != nil {
			return nil, err
		}
	}
	cycle, err := domain.NewHarvestCycle(owner, f)
	if err != nil {
		return nil, err
	}
	cycles.Add(cycle)
	for _, in := range plants {
		if _, err := h.addPlantToCycle(ctx, uow, cycles, cycle, in); err != nil {
			return nil, err
		}
	}
	if err := h.commit(ctx, uow, CreateHarvestCycleHandler); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (h *Handlers) UpdateHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, id string, f domain.HarvestCycleFields) (*domain.HarvestCycle, error) {
	uow.Initialize(UpdateHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return nil, err
	}
	cycle, err := cycles.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if f.GardenID != "" && f.GardenID != cycle.GardenID {
		if err := h.requireGarden(ctx, uow, owner, f.GardenID); err != nil {
			return nil, err
		}
	}
	if err := cycle.Update(f); err != nil {
		return nil, err
	}
	if cycle.IsModified() {
		cycles.Update(cycle)
	}
	if err := h.commit(ctx, uow, UpdateHarvestCycleHandler); err != nil {
		return nil, err
	}
	return cycle, nil
}

// DeleteHarvestCycle removes the cycle together with its images.
func (h *Handlers) DeleteHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, id string) error {
	uow.Initialize(DeleteHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return err
	}
	images, err := repository.NewImages(uow)
	if err != nil {
		return err
	}
	cycle, err := cycles.GetByID(ctx, owner, id)
	if err != nil {
		return err
	}
	attached, err := images.ForEntity(ctx, owner, domain.RelatedEntity{Type: domain.EntityHarvestCycle, ID: id})
	if err != nil {
		return err
	}
	for _, img := range attached {
		if err := h.DeleteImage(ctx, uow, owner, img.ID); err != nil {
			return err
		}
	}
	cycle.MarkDeleted()
	cycles.Delete(owner, id, cycle)
	return h.commit(ctx, uow, DeleteHarvestCycleHandler)
}

func (h *Handlers) AddPlantToHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, cycleID string, in CyclePlant) (domain.PlantHarvestCycle, error) {
	uow.Initialize(AddPlantToHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	cycle, err := cycles.GetByID(ctx, owner, cycleID)
	if err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	return h.addPlantToCycle(ctx, uow, cycles, cycle, in)
}

// addPlantToCycle works on an aggregate the caller already holds, which
// may not be committed yet.
func (h *Handlers) addPlantToCycle(ctx context.Context, uow *work.UnitOfWork, cycles *repository.HarvestCycles, cycle *domain.HarvestCycle, in CyclePlant) (domain.PlantHarvestCycle, error) {
	uow.Initialize(AddPlantToHarvestCycleHandler)
	plants, err := repository.NewPlants(uow)
	if err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	plant, err := plants.GetByID(ctx, cycle.Owner, in.PlantID)
	if err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	child, err := cycle.AddPlant(
		domain.RelatedEntity{Type: domain.EntityPlant, ID: plant.ID, Name: plant.Name},
		in.PlantHarvestCycleFields,
	)
	if err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	if !cycles.IsAdded(cycle) {
		cycles.Update(cycle)
	}
	if err := h.commit(ctx, uow, AddPlantToHarvestCycleHandler); err != nil {
		return domain.PlantHarvestCycle{}, err
	}
	return child, nil
}

func (h *Handlers) UpdatePlantHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, cycleID, id string, f domain.PlantHarvestCycleFields) (*domain.HarvestCycle, error) {
	uow.Initialize(UpdatePlantHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return nil, err
	}
	cycle, err := cycles.GetByID(ctx, owner, cycleID)
	if err != nil {
		return nil, err
	}
	if err := cycle.UpdatePlant(id, f); err != nil {
		return nil, notFound(err)
	}
	if cycle.IsModified() {
		cycles.Update(cycle)
	}
	if err := h.commit(ctx, uow, UpdatePlantHarvestCycleHandler); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (h *Handlers) RemovePlantFromHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, cycleID, id string) error {
	uow.Initialize(RemovePlantFromHarvestCycleHandler)
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return err
	}
	cycle, err := cycles.GetByID(ctx, owner, cycleID)
	if err != nil {
		return err
	}
	if err := cycle.RemovePlant(id); err != nil {
		return notFound(err)
	}
	cycles.Update(cycle)
	return h.commit(ctx, uow, RemovePlantFromHarvestCycleHandler)
}

func (h *Handlers) GetHarvestCycle(ctx context.Context, uow *work.UnitOfWork, owner, id string) (*domain.HarvestCycle, error) {
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return nil, err
	}
	return cycles.GetByID(ctx, owner, id)
}

// ListHarvestCycles lists owner's cycles, optionally of one garden.
func (h *Handlers) ListHarvestCycles(ctx context.Context, uow *work.UnitOfWork, owner, gardenID string) ([]*domain.HarvestCycle, error) {
	cycles, err := repository.NewHarvestCycles(uow)
	if err != nil {
		return nil, err
	}
	if gardenID != "" {
		return cycles.ByGarden(ctx, owner, gardenID)
	}
	return cycles.ListByOwner(ctx, owner)
}

func (h *Handlers) requireGarden(ctx context.Context, uow *work.UnitOfWork, owner, gardenID string) error {
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return err
	}
	_, err = gardens.GetByID(ctx, owner, gardenID)
	return err
}

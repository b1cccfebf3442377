package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlantHarvestCycle is one plant sown within a harvest cycle.
type PlantHarvestCycle struct {
	ID            string     `json:"id"`
	PlantID       string     `json:"plantId"`
	PlantName     string     `json:"plantName"`
	NumberOfSeeds int        `json:"numberOfSeeds"`
	SeedingDate   *time.Time `json:"seedingDate,omitempty"`
	HarvestDate   *time.Time `json:"harvestDate,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

func (p PlantHarvestCycle) related() *RelatedEntity {
	return &RelatedEntity{Type: EntityPlantHarvestCycle, ID: p.ID, Name: p.PlantName}
}

type HarvestCycle struct {
	Entity
	Owner     string              `json:"owner"`
	Name      string              `json:"name"`
	GardenID  string              `json:"gardenId,omitempty"`
	StartDate time.Time           `json:"startDate"`
	EndDate   *time.Time          `json:"endDate,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	Plants    []PlantHarvestCycle `json:"plants,omitempty"`
}

type HarvestCycleFields struct {
	Name      string     `json:"name"`
	GardenID  string     `json:"gardenId"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Notes     string     `json:"notes"`
}

func (f HarvestCycleFields) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalidf("harvest cycle name is required")
	}
	if f.EndDate != nil && f.EndDate.Before(f.StartDate) {
		return invalidf("harvest cycle ends before it starts")
	}
	return nil
}

// PlantHarvestCycleFields describe a plant sown in a cycle.
type PlantHarvestCycleFields struct {
	NumberOfSeeds int        `json:"numberOfSeeds"`
	SeedingDate   *time.Time `json:"seedingDate"`
	HarvestDate   *time.Time `json:"harvestDate"`
	Notes         string     `json:"notes"`
}

func NewHarvestCycle(owner string, f HarvestCycleFields) (*HarvestCycle, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	h := &HarvestCycle{
		Entity:    newEntity(uuid.NewString()),
		Owner:     owner,
		Name:      strings.TrimSpace(f.Name),
		GardenID:  f.GardenID,
		StartDate: f.StartDate.UTC(),
		Notes:     f.Notes,
	}
	TrackOptionalTime(&h.Entity, &h.EndDate, f.EndDate, "EndDate", nil)
	h.raiseCreated(NewEvent(HarvestCycleCreated, h, nil))
	return h, nil
}

func (h *HarvestCycle) EntityType() EntityType { return EntityHarvestCycle }
func (h *HarvestCycle) Partition() string      { return h.Owner }

func (h *HarvestCycle) Update(f HarvestCycleFields) error {
	if err := f.validate(); err != nil {
		return err
	}
	TrackField(&h.Entity, &h.Name, strings.TrimSpace(f.Name), "Name", h.onFieldChanged)
	TrackField(&h.Entity, &h.GardenID, f.GardenID, "GardenID", h.onFieldChanged)
	TrackTime(&h.Entity, &h.StartDate, f.StartDate.UTC(), "StartDate", h.onFieldChanged)
	TrackOptionalTime(&h.Entity, &h.EndDate, f.EndDate, "EndDate", h.onFieldChanged)
	TrackField(&h.Entity, &h.Notes, f.Notes, "Notes", h.onFieldChanged)
	return nil
}

func (h *HarvestCycle) onFieldChanged(string) {
	h.raiseCoalesced(NewEvent(HarvestCycleUpdated, h, nil))
}

// FindPlant returns the index of the child with the given id, or -1.
func (h *HarvestCycle) FindPlant(id string) int {
	for i := range h.Plants {
		if h.Plants[i].ID == id {
			return i
		}
	}
	return -1
}

// AddPlant sows plant in the cycle. A plant can appear once per cycle.
func (h *HarvestCycle) AddPlant(plant RelatedEntity, f PlantHarvestCycleFields) (PlantHarvestCycle, error) {
	if plant.ID == "" {
		return PlantHarvestCycle{}, invalidf("plant id is required")
	}
	if f.NumberOfSeeds < 0 {
		return PlantHarvestCycle{}, invalidf("number of seeds cannot be negative")
	}
	for _, p := range h.Plants {
		if p.PlantID == plant.ID {
			return PlantHarvestCycle{}, invalidf("plant %s already in harvest cycle %s", plant.ID, h.ID)
		}
	}
	child := PlantHarvestCycle{
		ID:            uuid.NewString(),
		PlantID:       plant.ID,
		PlantName:     plant.Name,
		NumberOfSeeds: f.NumberOfSeeds,
		SeedingDate:   copyTime(f.SeedingDate),
		HarvestDate:   copyTime(f.HarvestDate),
		Notes:         f.Notes,
	}
	h.Plants = append(h.Plants, child)
	h.markModified()
	h.raise(NewEvent(PlantAddedToHarvestCycle, h, child.related()))
	return child, nil
}

// UpdatePlant changes a child in place. Changes to the same child are
// reported once while the event is pending.
func (h *HarvestCycle) UpdatePlant(id string, f PlantHarvestCycleFields) error {
	i := h.FindPlant(id)
	if i < 0 {
		return fmt.Errorf("plant harvest cycle %s: %w", id, ErrChildNotFound)
	}
	if f.NumberOfSeeds < 0 {
		return invalidf("number of seeds cannot be negative")
	}
	child := &h.Plants[i]
	hook := func(string) {
		h.raiseCoalesced(NewEvent(PlantHarvestCycleUpdated, h, child.related()))
	}
	TrackField(&h.Entity, &child.NumberOfSeeds, f.NumberOfSeeds, "NumberOfSeeds", hook)
	TrackOptionalTime(&h.Entity, &child.SeedingDate, f.SeedingDate, "SeedingDate", hook)
	TrackOptionalTime(&h.Entity, &child.HarvestDate, f.HarvestDate, "HarvestDate", hook)
	TrackField(&h.Entity, &child.Notes, f.Notes, "Notes", hook)
	return nil
}

func (h *HarvestCycle) RemovePlant(id string) error {
	i := h.FindPlant(id)
	if i < 0 {
		return fmt.Errorf("plant harvest cycle %s: %w", id, ErrChildNotFound)
	}
	child := h.Plants[i]
	h.Plants = append(h.Plants[:i:i], h.Plants[i+1:]...)
	h.markModified()
	h.raise(NewEvent(PlantRemovedFromHarvestCycle, h, child.related()))
	return nil
}

func (h *HarvestCycle) MarkDeleted() {
	h.markModified()
	h.raise(NewEvent(HarvestCycleDeleted, h, nil))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

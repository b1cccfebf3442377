package domain

import (
	"strings"

	"github.com/google/uuid"
)

type PlantLifecycle string

const (
	LifecycleAnnual    PlantLifecycle = "annual"
	LifecyclePerennial PlantLifecycle = "perennial"
	LifecycleBiennial  PlantLifecycle = "biennial"
)

// Plant is a catalog entry owned by a gardener.
type Plant struct {
	Entity
	Owner              string         `json:"owner"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Color              string         `json:"color,omitempty"`
	Lifecycle          PlantLifecycle `json:"lifecycle,omitempty"`
	Type               string         `json:"type,omitempty"`
	DaysToMaturityMin  int            `json:"daysToMaturityMin"`
	DaysToMaturityMax  int            `json:"daysToMaturityMax"`
	SeedViableForYears int            `json:"seedViableForYears"`
	Tags               []string       `json:"tags,omitempty"`
}

// PlantFields are the mutable attributes of a plant.
type PlantFields struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Color              string         `json:"color"`
	Lifecycle          PlantLifecycle `json:"lifecycle"`
	Type               string         `json:"type"`
	DaysToMaturityMin  int            `json:"daysToMaturityMin"`
	DaysToMaturityMax  int            `json:"daysToMaturityMax"`
	SeedViableForYears int            `json:"seedViableForYears"`
	Tags               []string       `json:"tags"`
}

func (f PlantFields) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalidf("plant name is required")
	}
	if f.DaysToMaturityMin < 0 || f.DaysToMaturityMax < 0 {
		return invalidf("days to maturity cannot be negative")
	}
	if f.DaysToMaturityMax > 0 && f.DaysToMaturityMin > f.DaysToMaturityMax {
		return invalidf("days to maturity range is inverted")
	}
	return nil
}

// NewPlant creates a plant and queues plant-created.
func NewPlant(owner string, f PlantFields) (*Plant, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	p := &Plant{
		Entity:             newEntity(uuid.NewString()),
		Owner:              owner,
		Name:               strings.TrimSpace(f.Name),
		Description:        f.Description,
		Color:              f.Color,
		Lifecycle:          f.Lifecycle,
		Type:               f.Type,
		DaysToMaturityMin:  f.DaysToMaturityMin,
		DaysToMaturityMax:  f.DaysToMaturityMax,
		SeedViableForYears: f.SeedViableForYears,
	}
	TrackSet(&p.Entity, &p.Tags, f.Tags, "Tags", nil)
	p.raiseCreated(NewEvent(PlantCreated, p, nil))
	return p, nil
}

func (p *Plant) EntityType() EntityType { return EntityPlant }
func (p *Plant) Partition() string      { return p.Owner }

// Update applies f field by field; only real changes raise events.
func (p *Plant) Update(f PlantFields) error {
	if err := f.validate(); err != nil {
		return err
	}
	TrackField(&p.Entity, &p.Name, strings.TrimSpace(f.Name), "Name", p.onFieldChanged)
	TrackField(&p.Entity, &p.Description, f.Description, "Description", p.onFieldChanged)
	TrackField(&p.Entity, &p.Color, f.Color, "Color", p.onFieldChanged)
	TrackField(&p.Entity, &p.Lifecycle, f.Lifecycle, "Lifecycle", p.onFieldChanged)
	TrackField(&p.Entity, &p.Type, f.Type, "Type", p.onFieldChanged)
	TrackField(&p.Entity, &p.DaysToMaturityMin, f.DaysToMaturityMin, "DaysToMaturityMin", p.onFieldChanged)
	TrackField(&p.Entity, &p.DaysToMaturityMax, f.DaysToMaturityMax, "DaysToMaturityMax", p.onFieldChanged)
	TrackField(&p.Entity, &p.SeedViableForYears, f.SeedViableForYears, "SeedViableForYears", p.onFieldChanged)
	TrackSet(&p.Entity, &p.Tags, f.Tags, "Tags", p.onFieldChanged)
	return nil
}

// MarkDeleted queues plant-deleted. Removing the document is the
// repository's job.
func (p *Plant) MarkDeleted() {
	p.markModified()
	p.raise(NewEvent(PlantDeleted, p, nil))
}

func (p *Plant) onFieldChanged(field string) {
	switch field {
	case "Tags":
		p.raiseCoalesced(NewEvent(PlantTagsChanged, p, nil))
	default:
		p.raiseCoalesced(NewEvent(PlantUpdated, p, nil))
	}
}

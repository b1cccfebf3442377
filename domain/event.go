package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerKind tags the business reason an event was raised.
type TriggerKind string

// EntityType names an aggregate or child entity kind.
type EntityType string

const (
	EntityPlant             EntityType = "plant"
	EntityHarvestCycle      EntityType = "harvest-cycle"
	EntityPlantHarvestCycle EntityType = "plant-harvest-cycle"
	EntityImage             EntityType = "image"
	EntityUserProfile       EntityType = "user-profile"
	EntityGarden            EntityType = "garden"
	EntityWeatherUpdate     EntityType = "weather-update"
)

const (
	PlantCreated     TriggerKind = "plant-created"
	PlantUpdated     TriggerKind = "plant-updated"
	PlantTagsChanged TriggerKind = "plant-tags-changed"
	PlantDeleted     TriggerKind = "plant-deleted"

	HarvestCycleCreated          TriggerKind = "harvest-cycle-created"
	HarvestCycleUpdated          TriggerKind = "harvest-cycle-updated"
	HarvestCycleDeleted          TriggerKind = "harvest-cycle-deleted"
	PlantAddedToHarvestCycle     TriggerKind = "plant-added-to-harvest-cycle"
	PlantHarvestCycleUpdated     TriggerKind = "plant-harvest-cycle-updated"
	PlantRemovedFromHarvestCycle TriggerKind = "plant-removed-from-harvest-cycle"

	ImageCreated      TriggerKind = "image-created"
	ImageLabelChanged TriggerKind = "image-label-changed"
	ImageDeleted      TriggerKind = "image-deleted"

	UserProfileCreated TriggerKind = "user-profile-created"
	UserProfileUpdated TriggerKind = "user-profile-updated"
	UserProfileDeleted TriggerKind = "user-profile-deleted"

	GardenCreated TriggerKind = "garden-created"
	GardenUpdated TriggerKind = "garden-updated"
	GardenDeleted TriggerKind = "garden-deleted"

	WeatherRecorded TriggerKind = "weather-recorded"
)

// RelatedEntity is a lightweight pointer to an entity that may not be loaded.
type RelatedEntity struct {
	Type EntityType `json:"entityType"`
	ID   string     `json:"entityId"`
	Name string     `json:"name,omitempty"`
}

// Event is a single state transition. Values are never modified after
// construction; copies are handed out by the owning entity.
type Event struct {
	ID         string
	OccurredAt time.Time
	// UTCOffset is the local offset of the process that raised the event.
	UTCOffset time.Duration
	Trigger   TriggerKind
	Owner     string
	Subject   Aggregate
	Related   *RelatedEntity
}

// now is swapped in tests.
var now = time.Now

// NewEvent raises trigger for subject. related may be nil.
func NewEvent(trigger TriggerKind, subject Aggregate, related *RelatedEntity) Event {
	ev := newEvent(trigger, related)
	ev.Subject = subject
	if subject != nil {
		ev.Owner = subject.Partition()
	}
	return ev
}

// NewReferenceEvent raises trigger for an entity known only by reference,
// e.g. when deleting by id.
func NewReferenceEvent(trigger TriggerKind, owner string, related RelatedEntity) Event {
	ev := newEvent(trigger, &related)
	ev.Owner = owner
	return ev
}

func newEvent(trigger TriggerKind, related *RelatedEntity) Event {
	t := now()
	_, offset := t.Zone()
	var rel *RelatedEntity
	if related != nil {
		cp := *related
		rel = &cp
	}
	return Event{
		ID:         uuid.NewString(),
		OccurredAt: t.UTC(),
		UTCOffset:  time.Duration(offset) * time.Second,
		Trigger:    trigger,
		Related:    rel,
	}
}

// EntityType reports the kind of the subject, falling back to the related
// entity for reference events.
func (e Event) EntityType() EntityType {
	if e.Subject != nil {
		return e.Subject.EntityType()
	}
	if e.Related != nil {
		return e.Related.Type
	}
	return ""
}

// EntityID reports the id of the subject or, for reference events, of the
// related entity.
func (e Event) EntityID() string {
	if e.Subject != nil {
		return e.Subject.EntityID()
	}
	if e.Related != nil {
		return e.Related.ID
	}
	return ""
}

// Tombstone carries the deletion event of an aggregate removed by id.
type Tombstone struct {
	events []Event
}

func NewTombstone(trigger TriggerKind, owner string, related RelatedEntity) *Tombstone {
	return &Tombstone{events: []Event{NewReferenceEvent(trigger, owner, related)}}
}

func (t *Tombstone) PendingEvents() []Event {
	if len(t.events) == 0 {
		return nil
	}
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

func (t *Tombstone) ClearPendingEvents() { t.events = nil }

func (t *Tombstone) DropPendingEvents(n int) {
	if n >= len(t.events) {
		t.events = nil
	} else if n > 0 {
		t.events = append([]Event(nil), t.events[n:]...)
	}
}

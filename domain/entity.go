package domain

// EventSource is anything holding domain events waiting for dispatch.
type EventSource interface {
	PendingEvents() []Event
	ClearPendingEvents()
}

// Aggregate is implemented by every persisted aggregate root.
type Aggregate interface {
	EventSource
	EntityID() string
	EntityType() EntityType
	// Partition returns the store partition the aggregate lives in. For
	// user owned data it is the owner's user id.
	Partition() string
	IsModified() bool
}

// Entity is embedded by every aggregate root. It carries the identity, the
// modified flag and the events raised since the aggregate was created or
// loaded.
type Entity struct {
	ID string `json:"id"`

	modified       bool
	createdPending bool
	events         []Event
}

func newEntity(id string) Entity {
	return Entity{ID: id}
}

// EntityID returns the aggregate identifier.
func (e *Entity) EntityID() string { return e.ID }

// IsModified reports whether a tracked field or collection actually changed.
func (e *Entity) IsModified() bool { return e.modified }

// PendingEvents returns the queued events, oldest first.
func (e *Entity) PendingEvents() []Event {
	if len(e.events) == 0 {
		return nil
	}
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// ClearPendingEvents drops all queued events. Callers do this after the
// events were dispatched.
func (e *Entity) ClearPendingEvents() {
	e.events = nil
	e.createdPending = false
}

// DropPendingEvents forgets the n oldest queued events, e.g. after a
// dispatch that failed part way.
func (e *Entity) DropPendingEvents(n int) {
	if n <= 0 {
		return
	}
	if n >= len(e.events) {
		e.ClearPendingEvents()
		return
	}
	e.events = append([]Event(nil), e.events[n:]...)
	// The creation event is always first.
	e.createdPending = false
}

func (e *Entity) markModified() { e.modified = true }

// raise appends ev unconditionally.
func (e *Entity) raise(ev Event) {
	e.events = append(e.events, ev)
}

// raiseCreated records the creation event. While it is pending it absorbs
// all later field changes.
func (e *Entity) raiseCreated(ev Event) {
	e.modified = true
	e.createdPending = true
	e.raise(ev)
}

// raiseCoalesced records ev unless a creation event is pending or an event
// with the same trigger and related entity is already queued.
func (e *Entity) raiseCoalesced(ev Event) bool {
	if e.createdPending {
		return false
	}
	for _, pending := range e.events {
		if pending.Trigger == ev.Trigger && sameRelated(pending.Related, ev.Related) {
			return false
		}
	}
	e.raise(ev)
	return true
}

// raiseFirst records ev only when nothing else is queued.
func (e *Entity) raiseFirst(ev Event) bool {
	if len(e.events) > 0 {
		return false
	}
	e.raise(ev)
	return true
}

func sameRelated(a, b *RelatedEntity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Type == b.Type && a.ID == b.ID
}

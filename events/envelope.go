// Package events publishes domain events once their writes are committed.
package events

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"gardenlog/domain"
)

// Envelope is the wire shape of a published domain event.
type Envelope struct {
	ID               string                 `json:"id"`
	Type             domain.TriggerKind     `json:"type"`
	EntityType       domain.EntityType      `json:"entityType"`
	EntityID         string                 `json:"entityId"`
	UserID           string                 `json:"userId"`
	OccurredAt       time.Time              `json:"occurredAt"`
	UTCOffsetMinutes int                    `json:"utcOffsetMinutes"`
	Related          *domain.RelatedEntity  `json:"related,omitempty"`
	Data             sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// NewEnvelope snapshots ev. The subject, when present, is encoded into
// Data as it is at the time of the call.
func NewEnvelope(ev domain.Event) (Envelope, error) {
	env := Envelope{
		ID:               ev.ID,
		Type:             ev.Trigger,
		EntityType:       ev.EntityType(),
		EntityID:         ev.EntityID(),
		UserID:           ev.Owner,
		OccurredAt:       ev.OccurredAt,
		UTCOffsetMinutes: int(ev.UTCOffset / time.Minute),
		Related:          ev.Related,
	}
	if ev.Subject != nil {
		data, err := sonic.Marshal(ev.Subject)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s %s: %w", env.EntityType, env.EntityID, err)
		}
		env.Data = data
	}
	return env, nil
}

// Encode returns the JSON form of e.
func (e Envelope) Encode() ([]byte, error) {
	return sonic.Marshal(e)
}

// DecodeEnvelope parses a published envelope.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	if env.ID == "" || env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope is missing id or type")
	}
	return env, nil
}

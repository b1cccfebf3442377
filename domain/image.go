package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Image is an uploaded picture attached to another entity. The binary
// lives in blob storage; only its metadata is tracked here.
type Image struct {
	Entity
	Owner         string        `json:"owner"`
	RelatedEntity RelatedEntity `json:"relatedEntity"`
	FileName      string        `json:"fileName"`
	ContentType   string        `json:"contentType,omitempty"`
	Label         string        `json:"label,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type ImageFields struct {
	RelatedEntity RelatedEntity `json:"relatedEntity"`
	FileName      string        `json:"fileName"`
	ContentType   string        `json:"contentType"`
	Label         string        `json:"label"`
}

func NewImage(owner string, f ImageFields) (*Image, error) {
	if f.RelatedEntity.ID == "" || f.RelatedEntity.Type == "" {
		return nil, invalidf("image must be attached to an entity")
	}
	if strings.TrimSpace(f.FileName) == "" {
		return nil, invalidf("image file name is required")
	}
	img := &Image{
		Entity:        newEntity(uuid.NewString()),
		Owner:         owner,
		RelatedEntity: f.RelatedEntity,
		FileName:      f.FileName,
		ContentType:   f.ContentType,
		Label:         f.Label,
		CreatedAt:     now().UTC(),
	}
	rel := img.RelatedEntity
	img.raiseCreated(NewEvent(ImageCreated, img, &rel))
	return img, nil
}

func (i *Image) EntityType() EntityType { return EntityImage }
func (i *Image) Partition() string      { return i.Owner }

// SetLabel relabels the image. The label event is only recorded when the
// image has no other pending event, so a label change right after
// creation or a second relabel before dispatch is folded into the event
// already queued.
func (i *Image) SetLabel(label string) bool {
	return TrackField(&i.Entity, &i.Label, label, "Label", func(string) {
		rel := i.RelatedEntity
		i.raiseFirst(NewEvent(ImageLabelChanged, i, &rel))
	})
}

func (i *Image) MarkDeleted() {
	i.markModified()
	rel := i.RelatedEntity
	i.raise(NewEvent(ImageDeleted, i, &rel))
}

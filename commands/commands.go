// Package commands holds the application command handlers.
//
// Every handler calls Initialize on the unit of work with its own name
// before doing anything else, so whichever handler runs first becomes the
// root. Handlers called from inside another handler queue their writes and
// try to commit like any other, but only the root's commit goes through.
package commands

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"gardenlog/docstore"
	"gardenlog/domain"
	"gardenlog/events"
	"gardenlog/repository"
	"gardenlog/work"
)

// Handler names.
const (
	CreatePlantHandler = "CreatePlant"
	UpdatePlantHandler = "UpdatePlant"
	DeletePlantHandler = "DeletePlant"

	CreateHarvestCycleHandler          = "CreateHarvestCycle"
	UpdateHarvestCycleHandler          = "UpdateHarvestCycle"
	DeleteHarvestCycleHandler          = "DeleteHarvestCycle"
	AddPlantToHarvestCycleHandler      = "AddPlantToHarvestCycle"
	UpdatePlantHarvestCycleHandler     = "UpdatePlantHarvestCycle"
	RemovePlantFromHarvestCycleHandler = "RemovePlantFromHarvestCycle"

	CreateImageHandler      = "CreateImage"
	UpdateImageLabelHandler = "UpdateImageLabel"
	DeleteImageHandler      = "DeleteImage"

	CreateUserProfileHandler = "CreateUserProfile"
	UpdateUserProfileHandler = "UpdateUserProfile"
	CreateGardenHandler      = "CreateGarden"
	UpdateGardenHandler      = "UpdateGarden"
	DeleteGardenHandler      = "DeleteGarden"

	RecordWeatherHandler = "RecordWeather"
)

var (
	ErrNotFound = repository.ErrNotFound
	ErrInvalid  = domain.ErrInvalid
	ErrConflict = docstore.ErrConflict
)

// Handlers runs commands against a per-request unit of work.
type Handlers struct {
	dispatcher *events.Dispatcher
	logger     *log.Logger
}

// New creates the handlers. dispatcher may be nil, in which case events
// stay on their aggregates.
func New(dispatcher *events.Dispatcher, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handlers{dispatcher: dispatcher, logger: logger}
}

// commit saves on behalf of handler. When handler is the root, the events
// of everything written in the unit of work are dispatched afterwards.
// Dispatch failures are logged; the writes already happened.
func (h *Handlers) commit(ctx context.Context, uow *work.UnitOfWork, handler string) error {
	n, err := uow.SaveChangesAs(ctx, handler)
	if err != nil {
		return err
	}
	if !uow.IsRoot(handler) || h.dispatcher == nil {
		return nil
	}
	published, err := h.dispatcher.Dispatch(ctx, uow.Tracked()...)
	if err != nil {
		h.logger.WithFields(log.Fields{
			"handler":   handler,
			"commands":  n,
			"published": published,
		}).WithError(err).Error("dispatch domain events")
	}
	return nil
}

// notFound folds child lookups into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, domain.ErrChildNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}

package commands

import (
	"context"
	"time"

	"gardenlog/domain"
	"gardenlog/repository"
	"gardenlog/work"
)

// RecordWeather stores a snapshot for one of owner's gardens.
func (h *Handlers) RecordWeather(ctx context.Context, uow *work.UnitOfWork, owner, gardenID string, f domain.WeatherFields) (*domain.WeatherUpdate, error) {
	uow.Initialize(RecordWeatherHandler)
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return nil, err
	}
	weather, err := repository.NewWeatherUpdates(uow)
	if err != nil {
		return nil, err
	}
	g, err := gardens.GetByID(ctx, owner, gardenID)
	if err != nil {
		return nil, err
	}
	w, err := domain.NewWeatherUpdate(owner, domain.RelatedEntity{Type: domain.EntityGarden, ID: g.ID, Name: g.Name}, f)
	if err != nil {
		return nil, err
	}
	weather.Add(w)
	if err := h.commit(ctx, uow, RecordWeatherHandler); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWeather returns the garden's snapshots since the given time, oldest
// first.
func (h *Handlers) ListWeather(ctx context.Context, uow *work.UnitOfWork, owner, gardenID string, since time.Time) ([]*domain.WeatherUpdate, error) {
	weather, err := repository.NewWeatherUpdates(uow)
	if err != nil {
		return nil, err
	}
	return weather.Since(ctx, owner, gardenID, since)
}

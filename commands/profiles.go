package commands

import (
	"context"
	"errors"
	"fmt"

	"gardenlog/domain"
	"gardenlog/repository"
	"gardenlog/work"
)

// CreateUserProfile registers userID. When garden is set, a first garden
// is created through CreateGarden in the same commit.
func (h *Handlers) CreateUserProfile(ctx context.Context, uow *work.UnitOfWork, userID string, f domain.UserProfileFields, garden *domain.GardenFields) (*domain.UserProfile, error) {
	uow.Initialize(CreateUserProfileHandler)
	profiles, err := repository.NewUserProfiles(uow)
	if err != nil {
		return nil, err
	}
	if _, err := profiles.Get(ctx, userID); err == nil {
		return nil, fmt.Errorf("user profile %s: %w", userID, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p, err := domain.NewUserProfile(userID, f)
	if err != nil {
		return nil, err
	}
	profiles.Add(p)
	if garden != nil {
		if _, err := h.CreateGarden(ctx, uow, userID, *garden); err != nil {
			return nil, err
		}
	}
	if err := h.commit(ctx, uow, CreateUserProfileHandler); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handlers) UpdateUserProfile(ctx context.Context, uow *work.UnitOfWork, userID string, f domain.UserProfileFields) (*domain.UserProfile, error) {
	uow.Initialize(UpdateUserProfileHandler)
	profiles, err := repository.NewUserProfiles(uow)
	if err != nil {
		return nil, err
	}
	p, err := profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(f); err != nil {
		return nil, err
	}
	if p.IsModified() {
		profiles.Update(p)
	}
	if err := h.commit(ctx, uow, UpdateUserProfileHandler); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handlers) GetUserProfile(ctx context.Context, uow *work.UnitOfWork, userID string) (*domain.UserProfile, error) {
	profiles, err := repository.NewUserProfiles(uow)
	if err != nil {
		return nil, err
	}
	return profiles.Get(ctx, userID)
}

func (h *Handlers) CreateGarden(ctx context.Context, uow *work.UnitOfWork, owner string, f domain.GardenFields) (*domain.Garden, error) {
	uow.Initialize(CreateGardenHandler)
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return nil, err
	}
	g, err := domain.NewGarden(owner, f)
	if err != nil {
		return nil, err
	}
	gardens.Add(g)
	if err := h.commit(ctx, uow, CreateGardenHandler); err != nil {
		return nil, err
	}
	return g, nil
}

func (h *Handlers) UpdateGarden(ctx context.Context, uow *work.UnitOfWork, owner, id string, f domain.GardenFields) (*domain.Garden, error) {
	uow.Initialize(UpdateGardenHandler)
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return nil, err
	}
	g, err := gardens.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := g.Update(f); err != nil {
		return nil, err
	}
	if g.IsModified() {
		gardens.Update(g)
	}
	if err := h.commit(ctx, uow, UpdateGardenHandler); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGarden removes the garden by id without loading it. Deleting a
// missing garden succeeds.
func (h *Handlers) DeleteGarden(ctx context.Context, uow *work.UnitOfWork, owner, id string) error {
	uow.Initialize(DeleteGardenHandler)
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return err
	}
	tombstone := domain.NewTombstone(domain.GardenDeleted, owner, domain.RelatedEntity{Type: domain.EntityGarden, ID: id})
	gardens.Delete(owner, id, tombstone)
	return h.commit(ctx, uow, DeleteGardenHandler)
}

func (h *Handlers) GetGarden(ctx context.Context, uow *work.UnitOfWork, owner, id string) (*domain.Garden, error) {
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return nil, err
	}
	return gardens.GetByID(ctx, owner, id)
}

func (h *Handlers) ListGardens(ctx context.Context, uow *work.UnitOfWork, owner string) ([]*domain.Garden, error) {
	gardens, err := repository.NewGardens(uow)
	if err != nil {
		return nil, err
	}
	return gardens.ListByOwner(ctx, owner)
}

package commands

import (
	"context"

	"gardenlog/domain"
	"gardenlog/repository"
	"gardenlog/work"
)

func (h *Handlers) CreateImage(ctx context.Context, uow *work.UnitOfWork, owner string, f domain.ImageFields) (*domain.Image, error) {
	uow.Initialize(CreateImageHandler)
	images, err := repository.NewImages(uow)
	if err != nil {
		return nil, err
	}
	img, err := domain.NewImage(owner, f)
	if err != nil {
		return nil, err
	}
	images.Add(img)
	if err := h.commit(ctx, uow, CreateImageHandler); err != nil {
		return nil, err
	}
	return img, nil
}

func (h *Handlers) UpdateImageLabel(ctx context.Context, uow *work.UnitOfWork, owner, id, label string) (*domain.Image, error) {
	uow.Initialize(UpdateImageLabelHandler)
	images, err := repository.NewImages(uow)
	if err != nil {
		return nil, err
	}
	img, err := images.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if img.SetLabel(label) {
		images.Update(img)
	}
	if err := h.commit(ctx, uow, UpdateImageLabelHandler); err != nil {
		return nil, err
	}
	return img, nil
}

func (h *Handlers) DeleteImage(ctx context.Context, uow *work.UnitOfWork, owner, id string) error {
	uow.Initialize(DeleteImageHandler)
	images, err := repository.NewImages(uow)
	if err != nil {
		return err
	}
	img, err := images.GetByID(ctx, owner, id)
	if err != nil {
		return err
	}
	img.MarkDeleted()
	images.Delete(owner, id, img)
	return h.commit(ctx, uow, DeleteImageHandler)
}

func (h *Handlers) GetImage(ctx context.Context, uow *work.UnitOfWork, owner, id string) (*domain.Image, error) {
	images, err := repository.NewImages(uow)
	if err != nil {
		return nil, err
	}
	return images.GetByID(ctx, owner, id)
}

// ListImages lists the images attached to related, or all of owner's
// images when related.ID is empty.
func (h *Handlers) ListImages(ctx context.Context, uow *work.UnitOfWork, owner string, related domain.RelatedEntity) ([]*domain.Image, error) {
	images, err := repository.NewImages(uow)
	if err != nil {
		return nil, err
	}
	if related.ID == "" {
		return images.ListByOwner(ctx, owner)
	}
	return images.ForEntity(ctx, owner, related)
}

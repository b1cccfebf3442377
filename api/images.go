package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gardenlog/domain"
)

func (s *server) listImages(c echo.Context) error {
	related := domain.RelatedEntity{
		Type: domain.EntityType(c.QueryParam("entityType")),
		ID:   c.QueryParam("entityId"),
	}
	images, err := s.handlers.ListImages(c.Request().Context(), unitOfWork(c), owner(c), related)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

func (s *server) createImage(c echo.Context) error {
	var f domain.ImageFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	img, err := s.handlers.CreateImage(c.Request().Context(), unitOfWork(c), owner(c), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (s *server) getImage(c echo.Context) error {
	img, err := s.handlers.GetImage(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (s *server) updateImageLabel(c echo.Context) error {
	var req labelRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err)
	}
	img, err := s.handlers.UpdateImageLabel(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), req.Label)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (s *server) deleteImage(c echo.Context) error {
	if err := s.handlers.DeleteImage(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

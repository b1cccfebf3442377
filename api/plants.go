package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gardenlog/domain"
)

func (s *server) listPlants(c echo.Context) error {
	lc := domain.PlantLifecycle(c.QueryParam("lifecycle"))
	plants, err := s.handlers.ListPlants(c.Request().Context(), unitOfWork(c), owner(c), lc)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, plants)
}

func (s *server) createPlant(c echo.Context) error {
	var f domain.PlantFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	p, err := s.handlers.CreatePlant(c.Request().Context(), unitOfWork(c), owner(c), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *server) getPlant(c echo.Context) error {
	p, err := s.handlers.GetPlant(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *server) updatePlant(c echo.Context) error {
	var f domain.PlantFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	p, err := s.handlers.UpdatePlant(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *server) deletePlant(c echo.Context) error {
	if err := s.handlers.DeletePlant(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

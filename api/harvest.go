package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gardenlog/commands"
	"gardenlog/domain"
)

type createHarvestCycleRequest struct {
	domain.HarvestCycleFields
	Plants []commands.CyclePlant `json:"plants"`
}

type labelRequest struct {
	Label string `json:"label"`
}

func (s *server) listHarvestCycles(c echo.Context) error {
	cycles, err := s.handlers.ListHarvestCycles(c.Request().Context(), unitOfWork(c), owner(c), c.QueryParam("gardenId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, cycles)
}

func (s *server) createHarvestCycle(c echo.Context) error {
	var req createHarvestCycleRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err)
	}
	cycle, err := s.handlers.CreateHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), req.HarvestCycleFields, req.Plants)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, cycle)
}

func (s *server) getHarvestCycle(c echo.Context) error {
	cycle, err := s.handlers.GetHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, cycle)
}

func (s *server) updateHarvestCycle(c echo.Context) error {
	var f domain.HarvestCycleFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	cycle, err := s.handlers.UpdateHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, cycle)
}

func (s *server) deleteHarvestCycle(c echo.Context) error {
	if err := s.handlers.DeleteHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) addPlantToHarvestCycle(c echo.Context) error {
	var in commands.CyclePlant
	if err := bind(c, &in); err != nil {
		return s.fail(c, err)
	}
	child, err := s.handlers.AddPlantToHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, child)
}

func (s *server) updatePlantHarvestCycle(c echo.Context) error {
	var f domain.PlantHarvestCycleFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	cycle, err := s.handlers.UpdatePlantHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), c.Param("plantCycleId"), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, cycle)
}

func (s *server) removePlantFromHarvestCycle(c echo.Context) error {
	err := s.handlers.RemovePlantFromHarvestCycle(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), c.Param("plantCycleId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

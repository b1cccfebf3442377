package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gardenlog/domain"
)

type createProfileRequest struct {
	domain.UserProfileFields
	Garden *domain.GardenFields `json:"garden"`
}

func (s *server) getUserProfile(c echo.Context) error {
	p, err := s.handlers.GetUserProfile(c.Request().Context(), unitOfWork(c), owner(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *server) createUserProfile(c echo.Context) error {
	var req createProfileRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err)
	}
	p, err := s.handlers.CreateUserProfile(c.Request().Context(), unitOfWork(c), owner(c), req.UserProfileFields, req.Garden)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *server) updateUserProfile(c echo.Context) error {
	var f domain.UserProfileFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	p, err := s.handlers.UpdateUserProfile(c.Request().Context(), unitOfWork(c), owner(c), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *server) listGardens(c echo.Context) error {
	gardens, err := s.handlers.ListGardens(c.Request().Context(), unitOfWork(c), owner(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, gardens)
}

func (s *server) createGarden(c echo.Context) error {
	var f domain.GardenFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	g, err := s.handlers.CreateGarden(c.Request().Context(), unitOfWork(c), owner(c), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *server) getGarden(c echo.Context) error {
	g, err := s.handlers.GetGarden(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (s *server) updateGarden(c echo.Context) error {
	var f domain.GardenFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	g, err := s.handlers.UpdateGarden(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (s *server) deleteGarden(c echo.Context) error {
	if err := s.handlers.DeleteGarden(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) listWeather(c echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return s.fail(c, err)
	}
	updates, err := s.handlers.ListWeather(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), since)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, updates)
}

func (s *server) recordWeather(c echo.Context) error {
	var f domain.WeatherFields
	if err := bind(c, &f); err != nil {
		return s.fail(c, err)
	}
	w, err := s.handlers.RecordWeather(c.Request().Context(), unitOfWork(c), owner(c), c.Param("id"), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, w)
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	remoaircon "github.com/eivy/remo-aircon"
)

type commandRequest struct {
	// Value is a string, or a number for temperatures. A null temperature
	// sends nothing.
	Value any `json:"value"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	if s.metrics != nil {
		e.GET(s.metricsPath, echo.WrapHandler(s.metrics))
	}
	e.GET("/aircons", s.ListHandler)
	e.GET("/aircons/:id", s.GetHandler)
	e.POST("/aircons/:id/:kind", s.CommandHandler)

	return e
}

// HealthCheckHandler fails until the first update, when updates stall and
// while the broker, if any, is disconnected.
func (s *Server) HealthCheckHandler(c echo.Context) error {
	last := s.service.LastUpdate()
	if last.IsZero() || (s.maxAge > 0 && time.Since(last) > s.maxAge) {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if s.broker != nil && !s.broker.IsConnected() {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL mqtt disconnected")
	}
	return c.String(http.StatusOK, "health_check: OK")
}

func (s *Server) ListHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.States())
}

func (s *Server) GetHandler(c echo.Context) error {
	state, err := s.service.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// CommandHandler applies {"value": ...} to the setting named by :kind and
// answers with the refreshed state.
func (s *Server) CommandHandler(c echo.Context) error {
	id := c.Param("id")
	kind, err := remoaircon.ParseCommandKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	value, err := commandValue(req.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.service.Apply(c.Request().Context(), id, kind, value); err != nil {
		return httpError(err)
	}
	state, err := s.service.Get(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func commandValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", errors.New("value must be a string or a number")
}

func httpError(err error) error {
	switch {
	case errors.Is(err, remoaircon.ErrApplianceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, remoaircon.ErrInvalidValue):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
}

package ward

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
	// minImageChars feeds the blank-canvas heuristic on indicator responses.
	minImageChars int
}

func NewHandler(svc *Service, minImageChars int) *Handler {
	if minImageChars <= 0 {
		minImageChars = DefaultCanvasMinImageChars
	}
	return &Handler{svc: svc, minImageChars: minImageChars}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/ward", h.GetWard)
	api.PUT("/ward/title", h.UpdateTitle)
	api.PUT("/ward/number", h.UpdateWardNumber)
	api.POST("/ward/beds", h.AddBeds)
	api.GET("/ward/beds/:id", h.GetBed)
	api.DELETE("/ward/beds/:id", h.DeleteBed)
	api.POST("/ward/beds/:id/discharge", h.DischargePatient)
	api.PUT("/ward/beds/:id/patient", h.UpdateBedPatient)
	api.POST("/ward/reload", h.Reload)
}

func (h *Handler) snapshot() (*Ward, error) {
	w := h.svc.Snapshot()
	if w == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "ward not loaded")
	}
	return w, nil
}

func (h *Handler) GetWard(c echo.Context) error {
	w, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateTitle(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if err := h.svc.UpdateTitle(c.Request().Context(), req.Title); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) UpdateWardNumber(c echo.Context) error {
	var req struct {
		WardNumber string `json:"wardNumber"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateWardNumber(c.Request().Context(), req.WardNumber); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) AddBeds(c echo.Context) error {
	var req struct {
		Count int `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Count < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "count must be at least 1")
	}
	if err := h.svc.AddBeds(c.Request().Context(), req.Count); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) GetBed(c echo.Context) error {
	bed, ok := h.svc.GetBed(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "bed not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"bed":        bed,
		"hasPatient": bed.HasPatientData(h.minImageChars),
		"indicators": bed.Indicators(h.minImageChars),
	})
}

func (h *Handler) DeleteBed(c echo.Context) error {
	if err := h.svc.DeleteBed(c.Request().Context(), c.Param("id")); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) DischargePatient(c echo.Context) error {
	if err := h.svc.DischargePatient(c.Request().Context(), c.Param("id")); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) UpdateBedPatient(c echo.Context) error {
	var patient PatientData
	if err := c.Bind(&patient); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateBedPatient(c.Request().Context(), c.Param("id"), &patient); err != nil {
		return h.mutationError(err)
	}
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) Reload(c echo.Context) error {
	h.svc.Reload(c.Request().Context())
	w, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) mutationError(err error) error {
	if errors.Is(err, ErrBedNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bed not found")
	}
	if !h.svc.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ward not loaded")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

package backup

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roundshub/roundshub/internal/domain/ward"
)

// maxImportBytes caps the accepted import body. Backups are text JSON; even
// large wards stay far below this.
const maxImportBytes = 32 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/backup/export", h.ExportJSON)
	api.GET("/backup/export.pdf", h.ExportPDF)
	api.POST("/backup/import", h.Import)
	api.GET("/ward/beds/:id/export.pdf", h.ExportBedPDF)
}

func (h *Handler) ExportJSON(c echo.Context) error {
	data, err := h.svc.Export(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, Filename(time.Now())))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (h *Handler) ExportPDF(c echo.Context) error {
	data, name, err := h.svc.WardSummaryPDF(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (h *Handler) ExportBedPDF(c echo.Context) error {
	data, name, err := h.svc.BedPDF(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ward.ErrBedNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bed not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// Import accepts a raw envelope body. A rejected envelope returns 400 with
// no stored key touched.
func (h *Handler) Import(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Import(c.Request().Context(), body); err != nil {
		if errors.Is(err, ErrInvalidBackup) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "restored"})
}

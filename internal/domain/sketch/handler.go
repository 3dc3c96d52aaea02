package sketch

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/sketches", h.Get)
	api.PUT("/sketches", h.Put)
}

func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Load(c.Request().Context()))
}

func (h *Handler) Put(c echo.Context) error {
	var sketches []Sketch
	if err := c.Bind(&sketches); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.store.Save(c.Request().Context(), sketches); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.store.Load(c.Request().Context()))
}

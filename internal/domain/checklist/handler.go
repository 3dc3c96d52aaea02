package checklist

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
	api.GET("/checklist", h.Get)
	api.PUT("/checklist", h.Put)
}

func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Load(c.Request().Context()))
}

// Put replaces the whole list. The response reflects the renormalized,
// re-sorted state.
func (h *Handler) Put(c echo.Context) error {
	var items []Item
	if err := c.Bind(&items); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.store.Save(c.Request().Context(), items); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.store.Load(c.Request().Context()))
}

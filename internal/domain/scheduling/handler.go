package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:interval", h.ListByInterval)
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// List returns one date's appointments when appointmentDate is given, a page
// of all appointments otherwise.
func (h *Handler) List(c echo.Context) error {
	if date := c.QueryParam("appointmentDate"); date != "" {
		items, err := h.svc.ListOn(c.Request().Context(), date)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		return c.JSON(http.StatusOK, items)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByInterval(c echo.Context) error {
	items, err := h.svc.ListByInterval(c.Request().Context(), c.QueryParam("appointmentDate"), c.Param("interval"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

package pharmacy

import (
	"bytes"
	"encoding/json"
	"io"
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
	g := api.Group("/pharmacy")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("", h.ReplaceAll)
	g.PUT("/stock", h.UpdateStock)
	g.GET("/status", h.Status)
	g.GET("/:name/price", h.Get)
	g.DELETE("/:name", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*Medicine{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// bindMedicines accepts either a JSON array of medicines or a single object.
func bindMedicines(c echo.Context) ([]*Medicine, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unable to read request body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var m Medicine
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return []*Medicine{&m}, nil
	}
	var items []*Medicine
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return items, nil
}

func (h *Handler) Create(c echo.Context) error {
	items, err := bindMedicines(c)
	if err != nil {
		return err
	}
	if err := h.svc.CreateMany(c.Request().Context(), items); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *Handler) ReplaceAll(c echo.Context) error {
	items, err := bindMedicines(c)
	if err != nil {
		return err
	}
	if err := h.svc.ReplaceAll(c.Request().Context(), items); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Medicines updated successfully"})
}

func (h *Handler) Get(c echo.Context) error {
	m, err := h.svc.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Medicine deleted successfully"})
}

func (h *Handler) UpdateStock(c echo.Context) error {
	var u StockUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.UpdateStock(c.Request().Context(), &u)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Stock updated successfully",
		"medicine": m,
	})
}

func (h *Handler) Status(c echo.Context) error {
	alerts, err := h.svc.Status(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, alerts)
}

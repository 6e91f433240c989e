package clinical

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/vitals", h.RecordVital)
	api.GET("/vitals", h.ListVitals)

	api.POST("/summaries", h.RecordSummary)
	api.GET("/summaries", h.ListSummaries)
	api.GET("/summaries/:interval", h.ListSummariesByInterval)
	api.POST("/medical-history", h.MedicalHistory)
	api.GET("/upcoming-visits", h.UpcomingVisits)
	api.GET("/procedure-bills/pending", h.PendingProcedures)

	api.GET("/catalog/:kind", h.ListCatalog)
	api.POST("/catalog/:kind", h.AddCatalogEntry)
}

// -- Vitals --

func (h *Handler) RecordVital(c echo.Context) error {
	var v Vital
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordVital(c.Request().Context(), &v); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"status": "success", "vital": v})
}

func (h *Handler) ListVitals(c echo.Context) error {
	items, err := h.svc.ListVitals(c.Request().Context(), c.QueryParam("patientUID"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

// -- Summaries --

func (h *Handler) RecordSummary(c echo.Context) error {
	var s Summary
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordSummary(c.Request().Context(), &s); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListSummaries(c echo.Context) error {
	items, err := h.svc.SummariesOn(c.Request().Context(), c.QueryParam("appointmentDate"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListSummariesByInterval(c echo.Context) error {
	items, err := h.svc.SummariesByInterval(c.Request().Context(), c.QueryParam("appointmentDate"), c.Param("interval"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

type historyRequest struct {
	PatientUID string `json:"patientUID"`
}

func (h *Handler) MedicalHistory(c echo.Context) error {
	var req historyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.MedicalHistory(c.Request().Context(), req.PatientUID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpcomingVisits(c echo.Context) error {
	items, err := h.svc.UpcomingVisits(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"upcoming_visits": items})
}

func (h *Handler) PendingProcedures(c echo.Context) error {
	items, err := h.svc.PendingProcedures(c.Request().Context(), c.QueryParam("appointmentDate"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"detailedRecords": items})
}

// -- Catalogs --

type catalogRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListCatalog(c echo.Context) error {
	items, err := h.svc.ListCatalog(c.Request().Context(), c.Param("kind"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddCatalogEntry(c echo.Context) error {
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.AddCatalogEntry(c.Request().Context(), c.Param("kind"), req.Name)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

package billing

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
	api.POST("/billing", h.Checkout)
	api.PUT("/billing", h.UpdateLineItems)
	api.DELETE("/billing", h.DeleteByPatient)
	api.GET("/billing/:interval", h.ListByInterval)

	api.POST("/procedure-bills", h.CreateProcedureBill)
	api.GET("/procedure-bills/:interval", h.ListProcedureBills)
}

func (h *Handler) Checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Checkout(c.Request().Context(), &req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"success":      "Billing data successfully saved!",
		"serialNumber": rec.BillNumber,
	})
}

func (h *Handler) UpdateLineItems(c echo.Context) error {
	var u LineItemsUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateLineItems(c.Request().Context(), &u); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Data updated successfully"})
}

type deleteRequest struct {
	RecordID string `json:"record_id"`
}

// DeleteByPatient removes all bills of the patient named by record_id.
func (h *Handler) DeleteByPatient(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.DeleteByPatient(c.Request().Context(), req.RecordID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Data deleted successfully", "deleted": n})
}

func (h *Handler) ListByInterval(c echo.Context) error {
	records, err := h.svc.ListByInterval(c.Request().Context(), c.QueryParam("appointmentDate"), c.Param("interval"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"billing_data": records})
}

func (h *Handler) CreateProcedureBill(c echo.Context) error {
	var b ProcedureBill
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.svc.CreateProcedureBill(c.Request().Context(), &b)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"success":             "Billing data saved successfully!",
		"consumerBillNumber":  saved.ConsumerBillNumber,
		"procedureBillNumber": saved.ProcedureBillNumber,
	})
}

func (h *Handler) ListProcedureBills(c echo.Context) error {
	bills, err := h.svc.ListProcedureBillsByInterval(c.Request().Context(), c.QueryParam("appointmentDate"), c.Param("interval"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bills)
}

package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, testDeps) {
	d := newTestDeps()
	h := NewHandler(d.svc)
	e := echo.New()
	return h, e, d
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

const checkoutBody = `{
	"patientUID": "P001",
	"patientName": "Asha",
	"appointmentDate": "2024-06-01",
	"table_data": [{"item": "Sunscreen", "qty": 2, "price": "250.00", "total": "500.00"}],
	"netAmount": "500.00",
	"discount": "0",
	"paymentType": "Cash",
	"section": "Pharmacy"
}`

func TestHandler_Checkout(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/billing", checkoutBody), rec)

	if err := h.Checkout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["serialNumber"] != "CPhar/2024/001" {
		t.Errorf("expected CPhar/2024/001, got %q", body["serialNumber"])
	}
}

func TestHandler_Checkout_UnknownScope(t *testing.T) {
	h, e, _ := newTestHandler()
	payload := strings.Replace(checkoutBody, `"section": "Pharmacy"`, `"section": "Laboratory"`, 1)
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/billing", payload), httptest.NewRecorder())

	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", he.Code)
	}
}

func TestHandler_Checkout_MalformedBody(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/billing", `{"appointmentDate": 12`), httptest.NewRecorder())

	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListByInterval(t *testing.T) {
	h, e, _ := newTestHandler()
	if err := h.Checkout(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/billing", checkoutBody), httptest.NewRecorder())); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/billing/week?appointmentDate=2024-05-28", nil), rec)
	c.SetParamNames("interval")
	c.SetParamValues("week")

	if err := h.ListByInterval(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		BillingData []map[string]interface{} `json:"billing_data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.BillingData) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(body.BillingData))
	}
	if body.BillingData[0]["billNumber"] != "CPhar/2024/001" {
		t.Errorf("unexpected bill %v", body.BillingData[0]["billNumber"])
	}
	if _, ok := body.BillingData[0]["table_data"]; !ok {
		t.Error("expected table_data in response")
	}
}

func TestHandler_ListByInterval_EmptyIsArray(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/billing/day?appointmentDate=2024-01-01", nil), rec)
	c.SetParamNames("interval")
	c.SetParamValues("day")

	if err := h.ListByInterval(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"billing_data":[]}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestHandler_ListByInterval_BadInput(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		date     string
	}{
		{"bad interval", "year", "2024-01-01"},
		{"missing date", "day", ""},
		{"bad date", "day", "01-01-2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e, _ := newTestHandler()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/billing/"+tt.interval+"?appointmentDate="+tt.date, nil), httptest.NewRecorder())
			c.SetParamNames("interval")
			c.SetParamValues(tt.interval)

			err := h.ListByInterval(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %v", err)
			}
		})
	}
}

func TestHandler_DeleteByPatient(t *testing.T) {
	h, e, d := newTestHandler()
	_ = h.Checkout(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/billing", checkoutBody), httptest.NewRecorder()))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodDelete, "/api/v1/billing", `{"record_id": "P001"}`), rec)
	if err := h.DeleteByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(d.records.items) != 0 {
		t.Errorf("expected records removed, %d left", len(d.records.items))
	}

	c = e.NewContext(jsonRequest(http.MethodDelete, "/api/v1/billing", `{}`), httptest.NewRecorder())
	he, ok := h.DeleteByPatient(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing record_id")
	}
}

func TestHandler_UpdateLineItems_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()
	body := `{"patientUID": "P404", "appointmentDate": "2024-06-01", "table_data": [{"item": "Serum", "qty": 1, "price": "900", "total": "900"}]}`
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/v1/billing", body), httptest.NewRecorder())

	he, ok := h.UpdateLineItems(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", he)
	}
}

func TestHandler_CreateProcedureBill(t *testing.T) {
	h, e, _ := newTestHandler()
	body := `{
		"patientUID": "P001",
		"patientName": "Asha",
		"appointmentDate": "2024-06-01",
		"procedures": [{"item": "Laser", "qty": 1, "price": "4000", "total": "4000"}],
		"procedureNetAmount": "4000",
		"consumer": [],
		"consumerNetAmount": "0",
		"PaymentType": "Card"
	}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/procedure-bills", body), rec)

	if err := h.CreateProcedureBill(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["consumerBillNumber"] != "Cosu/2024/001" || resp["procedureBillNumber"] != "Proc/2024/001" {
		t.Errorf("unexpected numbers %v", resp)
	}
}

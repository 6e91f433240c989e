package pharmacy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_UpdateStock(t *testing.T) {
	svc, repo := newTestService(paracetamol(10))
	h := NewHandler(svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/v1/pharmacy/stock", `{"medicine_name": "Paracetamol", "qty": "4"}`), rec)
	if err := h.UpdateStock(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if repo.stock("Paracetamol") != 6 {
		t.Errorf("expected stock 6, got %d", repo.stock("Paracetamol"))
	}
}

func TestHandler_UpdateStock_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"insufficient", `{"medicine_name": "Paracetamol", "qty": 5}`, http.StatusBadRequest},
		{"invalid quantity", `{"medicine_name": "Paracetamol", "qty": "five"}`, http.StatusBadRequest},
		{"not found", `{"medicine_name": "Ibuprofen", "qty": 1}`, http.StatusNotFound},
		{"missing name", `{"qty": 1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(paracetamol(3))
			h := NewHandler(svc)
			c := echo.New().NewContext(jsonRequest(http.MethodPut, "/api/v1/pharmacy/stock", tt.body), httptest.NewRecorder())

			he, ok := h.UpdateStock(c).(*echo.HTTPError)
			if !ok || he.Code != tt.want {
				t.Fatalf("expected %d, got %v", tt.want, he)
			}
			if repo.stock("Paracetamol") != 3 {
				t.Errorf("expected stock unchanged, got %d", repo.stock("Paracetamol"))
			}
		})
	}
}

func TestHandler_Create_AcceptsArrayOrObject(t *testing.T) {
	svc, repo := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	body := `[{"medicine_name": "Sunscreen", "price": "350.50", "old_stock": 20, "expiry_date": "2025-01-31"},
		{"medicine_name": "Serum", "old_stock": 5}]`
	rec := httptest.NewRecorder()
	if err := h.Create(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/pharmacy", body), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	if err := h.Create(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/pharmacy", `{"medicine_name": "Toner"}`), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.items) != 3 {
		t.Errorf("expected 3 medicines, got %d", len(repo.items))
	}
	if repo.items["Sunscreen"].ExpiryDate.String() != "2025-01-31" {
		t.Errorf("unexpected expiry %s", repo.items["Sunscreen"].ExpiryDate)
	}

	he, ok := h.Create(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/pharmacy", `[{"medicine_name": 1}]`), httptest.NewRecorder())).(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body")
	}
}

func TestHandler_List_Paginates(t *testing.T) {
	svc, _ := newTestService(paracetamol(1), &Medicine{MedicineName: "Serum"}, &Medicine{MedicineName: "Toner"})
	h := NewHandler(svc)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/pharmacy?limit=2", nil), rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Medicine `json:"data"`
		Total   int        `json:"total"`
		HasMore bool       `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Data) != 2 || body.Total != 3 || !body.HasMore {
		t.Errorf("unexpected page %+v", body)
	}
}

func TestHandler_StatusAndGet(t *testing.T) {
	svc, _ := newTestService(paracetamol(3))
	h := NewHandler(svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := h.Status(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/pharmacy/status", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var alerts map[string][]map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(alerts["low_quantity_medicines"]) != 1 {
		t.Errorf("expected 1 low medicine, got %v", alerts)
	}
	if _, ok := alerts["near_expiry_medicines"]; !ok {
		t.Error("expected near_expiry_medicines key")
	}

	rec = httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues("Paracetamol")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"medicine_name":"Paracetamol"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("name")
	c.SetParamValues("Missing")
	if he, ok := h.Delete(c).(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404")
	}
}

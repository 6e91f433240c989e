package pharmacy

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// Medicine is one stocked item. OldStock is the sellable quantity and is the
// only field mutated by sales.
type Medicine struct {
	ID             uuid.UUID       `json:"id"`
	MedicineName   string          `json:"medicine_name"`
	CompanyName    string          `json:"company_name"`
	Price          decimal.Decimal `json:"price"`
	CGSTPercentage decimal.Decimal `json:"CGST_percentage"`
	CGSTValue      decimal.Decimal `json:"CGST_value"`
	SGSTPercentage decimal.Decimal `json:"SGST_percentage"`
	SGSTValue      decimal.Decimal `json:"SGST_value"`
	NewStock       int             `json:"new_stock"`
	OldStock       int             `json:"old_stock"`
	ReceivedDate   daterange.Date  `json:"received_date"`
	ExpiryDate     daterange.Date  `json:"expiry_date"`
	BatchNumber    string          `json:"batch_number"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (m *Medicine) Validate() error {
	m.MedicineName = strings.TrimSpace(m.MedicineName)
	m.BatchNumber = strings.TrimSpace(m.BatchNumber)
	if m.MedicineName == "" {
		return apperr.Validation("medicine_name is required")
	}
	if m.NewStock < 0 || m.OldStock < 0 {
		return apperr.Validation("%s: stock must not be negative", m.MedicineName)
	}
	for _, d := range []decimal.Decimal{m.Price, m.CGSTPercentage, m.CGSTValue, m.SGSTPercentage, m.SGSTValue} {
		if d.IsNegative() {
			return apperr.Validation("%s: price and tax values must not be negative", m.MedicineName)
		}
	}
	return nil
}

// IsQuantityLow reports whether the sellable stock is below threshold.
func (m *Medicine) IsQuantityLow(threshold int) bool {
	return m.OldStock < threshold
}

// IsExpiryNear reports whether the medicine expires on or before today plus
// windowDays. Expired medicine is near expiry too. A missing expiry date never is.
func (m *Medicine) IsExpiryNear(today daterange.Date, windowDays int) bool {
	if m.ExpiryDate.IsZero() {
		return false
	}
	return !m.ExpiryDate.After(today.AddDays(windowDays))
}

// Quantity is a requested stock quantity as sent by clients, either a JSON
// number or a numeric string. It is validated by ParseQuantity.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	if string(b) == "null" {
		*q = ""
		return nil
	}
	*q = Quantity(b)
	return nil
}

// ParseQuantity accepts a non-negative base-10 integer.
func ParseQuantity(q Quantity) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(q)))
	if err != nil || n < 0 {
		return 0, apperr.ErrInvalidQuantity
	}
	return n, nil
}

// StockUpdate is the payload of a sale against a medicine's stock.
type StockUpdate struct {
	MedicineName string   `json:"medicine_name"`
	Qty          Quantity `json:"qty"`
}

// Alerts is the result of a stock scan.
type Alerts struct {
	LowQuantity []*Medicine `json:"low_quantity_medicines"`
	NearExpiry  []*Medicine `json:"near_expiry_medicines"`
}

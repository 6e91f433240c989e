package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type PaymentType string

const (
	Cash PaymentType = "Cash"
	Card PaymentType = "Card"
)

type Section string

const (
	Pharmacy  Section = "Pharmacy"
	Consumer  Section = "Consumer"
	Procedure Section = "Procedure"
)

// LineItem is one row of a bill.
type LineItem struct {
	Item  string          `json:"item"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
	Total decimal.Decimal `json:"total"`
}

// Record is an issued bill. It is immutable apart from its line items.
type Record struct {
	ID              uuid.UUID       `json:"id"`
	PatientUID      string          `json:"patientUID"`
	PatientName     string          `json:"patientName"`
	AppointmentDate daterange.Date  `json:"appointmentDate"`
	LineItems       []LineItem      `json:"table_data"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	Discount        decimal.Decimal `json:"discount"`
	PaymentType     PaymentType     `json:"paymentType"`
	Section         Section         `json:"section"`
	BillNumber      string          `json:"billNumber"`
	Prefix          string          `json:"-"`
	Year            int             `json:"-"`
	Seq             int             `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// CheckoutRequest is the payload of a new bill.
type CheckoutRequest struct {
	PatientUID      string          `json:"patientUID"`
	PatientName     string          `json:"patientName"`
	AppointmentDate daterange.Date  `json:"appointmentDate"`
	LineItems       []LineItem      `json:"table_data"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	Discount        decimal.Decimal `json:"discount"`
	PaymentType     PaymentType     `json:"paymentType"`
	Section         Section         `json:"section"`
}

func (r *CheckoutRequest) Validate() error {
	r.PatientUID = strings.TrimSpace(r.PatientUID)
	if r.AppointmentDate.IsZero() {
		return apperr.Validation("appointmentDate is required")
	}
	if r.PatientUID == "" {
		return apperr.Validation("patientUID is required")
	}
	if _, err := PrefixFor(r.PaymentType, r.Section); err != nil {
		return err
	}
	if err := validateLineItems(r.LineItems); err != nil {
		return err
	}
	if r.NetAmount.IsNegative() {
		return apperr.Validation("netAmount must not be negative")
	}
	if r.Discount.IsNegative() {
		return apperr.Validation("discount must not be negative")
	}
	return nil
}

func validateLineItems(items []LineItem) error {
	for i, li := range items {
		if strings.TrimSpace(li.Item) == "" {
			return apperr.Validation("table_data[%d]: item is required", i)
		}
		if li.Qty < 0 {
			return apperr.Validation("table_data[%d]: qty must not be negative", i)
		}
		if li.Price.IsNegative() || li.Total.IsNegative() {
			return apperr.Validation("table_data[%d]: amounts must not be negative", i)
		}
	}
	return nil
}

// LineItemsUpdate replaces the line items of the bill issued to a patient on a date.
type LineItemsUpdate struct {
	PatientUID      string         `json:"patientUID"`
	AppointmentDate daterange.Date `json:"appointmentDate"`
	LineItems       []LineItem     `json:"table_data"`
}

func (u *LineItemsUpdate) Validate() error {
	if strings.TrimSpace(u.PatientUID) == "" || u.AppointmentDate.IsZero() || len(u.LineItems) == 0 {
		return apperr.Validation("patientUID, appointmentDate and table_data are required")
	}
	return validateLineItems(u.LineItems)
}

// ProcedureBill holds the procedures and consumables of one visit under two
// bill numbers, one from the Consumer scope and one from the Procedure scope.
type ProcedureBill struct {
	ID                  uuid.UUID       `json:"id"`
	PatientUID          string          `json:"patientUID"`
	PatientName         string          `json:"patientName"`
	AppointmentDate     daterange.Date  `json:"appointmentDate"`
	Procedures          []LineItem      `json:"procedures"`
	ProcedureNetAmount  decimal.Decimal `json:"procedureNetAmount"`
	Consumer            []LineItem      `json:"consumer"`
	ConsumerNetAmount   decimal.Decimal `json:"consumerNetAmount"`
	PaymentType         PaymentType     `json:"PaymentType"`
	ConsumerBillNumber  string          `json:"consumerBillNumber"`
	ProcedureBillNumber string          `json:"procedureBillNumber"`
	CreatedAt           time.Time       `json:"createdAt"`
}

func (b *ProcedureBill) Validate() error {
	b.PatientUID = strings.TrimSpace(b.PatientUID)
	if b.PatientUID == "" {
		return apperr.Validation("patientUID is required")
	}
	if b.AppointmentDate.IsZero() {
		return apperr.Validation("appointmentDate is required")
	}
	if b.PaymentType != Cash && b.PaymentType != Card {
		return apperr.Validation("unknown payment type %q", b.PaymentType)
	}
	if err := validateLineItems(b.Procedures); err != nil {
		return err
	}
	if err := validateLineItems(b.Consumer); err != nil {
		return err
	}
	if b.ProcedureNetAmount.IsNegative() || b.ConsumerNetAmount.IsNegative() {
		return apperr.Validation("net amounts must not be negative")
	}
	return nil
}

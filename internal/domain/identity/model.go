package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

// Patient is a registered client of the clinic, keyed by PatientUID.
type Patient struct {
	ID             uuid.UUID `json:"id"`
	PatientUID     string    `json:"patientUID"`
	PatientName    string    `json:"patientName"`
	MobileNumber   string    `json:"mobileNumber"`
	Age            int       `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Email          string    `json:"email,omitempty"`
	Language       string    `json:"language,omitempty"`
	PurposeOfVisit string    `json:"purposeOfVisit,omitempty"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (p *Patient) Validate() error {
	p.PatientUID = strings.TrimSpace(p.PatientUID)
	p.PatientName = strings.TrimSpace(p.PatientName)
	p.MobileNumber = strings.TrimSpace(p.MobileNumber)
	p.Email = strings.TrimSpace(p.Email)
	if p.PatientUID == "" || p.PatientName == "" {
		return apperr.Validation("patientUID and patientName are required")
	}
	if p.MobileNumber == "" {
		return apperr.Validation("mobileNumber is required")
	}
	if p.Age < 0 {
		return apperr.Validation("age must not be negative")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return apperr.Validation("invalid email %q", p.Email)
		}
	}
	return nil
}

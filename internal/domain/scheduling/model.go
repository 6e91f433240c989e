package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// Appointment books a registered patient for a date. A patient has at most
// one appointment per date.
type Appointment struct {
	ID              uuid.UUID      `json:"id"`
	PatientUID      string         `json:"patientUID"`
	PatientName     string         `json:"patientName"`
	MobileNumber    string         `json:"mobileNumber"`
	AppointmentDate daterange.Date `json:"appointmentDate"`
	PurposeOfVisit  string         `json:"purposeOfVisit"`
	Gender          string         `json:"gender"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (a *Appointment) Validate() error {
	a.PatientUID = strings.TrimSpace(a.PatientUID)
	if a.PatientUID == "" {
		return apperr.Validation("patientUID is required")
	}
	if a.AppointmentDate.IsZero() {
		return apperr.Validation("appointmentDate is required")
	}
	return nil
}

package scheduling

import (
	"context"

	"github.com/SMRFT/Cosmetalogy-final/internal/domain/identity"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	Exists(ctx context.Context, patientUID string, date daterange.Date) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByRange(ctx context.Context, start, end daterange.Date) ([]*Appointment, error)
}

// PatientLookup resolves the patient an appointment is booked for.
type PatientLookup interface {
	GetPatient(ctx context.Context, patientUID string) (*identity.Patient, error)
}

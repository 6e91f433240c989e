package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type Service struct {
	appointments AppointmentRepository
	patients     PatientLookup
	logger       zerolog.Logger
}

func NewService(appt AppointmentRepository, patients PatientLookup, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appt,
		patients:     patients,
		logger:       logger.With().Str("component", "appointments").Logger(),
	}
}

// Book creates an appointment for a registered patient, copying the
// patient's contact details, purpose of visit and gender.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	p, err := s.patients.GetPatient(ctx, a.PatientUID)
	if err != nil {
		return err
	}
	exists, err := s.appointments.Exists(ctx, a.PatientUID, a.AppointmentDate)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("patient %s already has an appointment on %s: %w", a.PatientUID, a.AppointmentDate, apperr.ErrConflict)
	}

	a.ID = uuid.New()
	a.PatientName = p.PatientName
	a.MobileNumber = p.MobileNumber
	a.PurposeOfVisit = p.PurposeOfVisit
	a.Gender = p.Gender
	a.CreatedAt = time.Now().UTC()
	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}
	s.logger.Info().Str("patient_uid", a.PatientUID).Str("date", a.AppointmentDate.String()).Msg("appointment booked")
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

// ListOn returns the appointments booked for one date.
func (s *Service) ListOn(ctx context.Context, date string) ([]*Appointment, error) {
	return daterange.FetchInterval[*Appointment](ctx, s.appointments, date, string(daterange.Day))
}

func (s *Service) ListByInterval(ctx context.Context, ref, interval string) ([]*Appointment, error) {
	return daterange.FetchInterval[*Appointment](ctx, s.appointments, ref, interval)
}

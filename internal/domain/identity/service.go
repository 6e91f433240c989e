package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	patients PatientRepository
	logger   zerolog.Logger
}

func NewService(patients PatientRepository, logger zerolog.Logger) *Service {
	return &Service{patients: patients, logger: logger.With().Str("component", "patients").Logger()}
}

// RegisterPatient stores a new patient. A second registration of the same
// patientUID is a conflict.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Str("patient_uid", p.PatientUID).Msg("patient registered")
	return nil
}

func (s *Service) GetPatient(ctx context.Context, patientUID string) (*Patient, error) {
	return s.patients.GetByUID(ctx, strings.TrimSpace(patientUID))
}

func (s *Service) ListPatients(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	if q = strings.TrimSpace(q); q != "" {
		return s.patients.Search(ctx, q, limit, offset)
	}
	return s.patients.List(ctx, limit, offset)
}

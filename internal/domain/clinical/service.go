package clinical

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type Service struct {
	vitals       VitalRepository
	summaries    SummaryRepository
	catalogs     CatalogRepository
	upcomingDays int
	today        func() daterange.Date
	logger       zerolog.Logger
}

func NewService(vitals VitalRepository, summaries SummaryRepository, catalogs CatalogRepository, upcomingDays int, logger zerolog.Logger) *Service {
	return &Service{
		vitals:       vitals,
		summaries:    summaries,
		catalogs:     catalogs,
		upcomingDays: upcomingDays,
		today:        daterange.Today,
		logger:       logger.With().Str("component", "clinical").Logger(),
	}
}

// -- Vitals --

func (s *Service) RecordVital(ctx context.Context, v *Vital) error {
	if err := v.Validate(); err != nil {
		return err
	}
	v.ID = uuid.New()
	v.CreatedAt = time.Now().UTC()
	return s.vitals.Create(ctx, v)
}

func (s *Service) ListVitals(ctx context.Context, patientUID string) ([]*Vital, error) {
	patientUID = strings.TrimSpace(patientUID)
	if patientUID == "" {
		return nil, apperr.Validation("patientUID is required")
	}
	items, err := s.vitals.ListByPatient(ctx, patientUID)
	if items == nil && err == nil {
		items = []*Vital{}
	}
	return items, err
}

// -- Summaries --

func (s *Service) RecordSummary(ctx context.Context, sum *Summary) error {
	if err := sum.Validate(); err != nil {
		return err
	}
	sum.ID = uuid.New()
	sum.CreatedAt = time.Now().UTC()
	if err := s.summaries.Create(ctx, sum); err != nil {
		return err
	}
	s.logger.Info().Str("patient_uid", sum.PatientUID).Str("date", sum.AppointmentDate.String()).Msg("visit summary recorded")
	return nil
}

// SummariesOn returns the summaries of one appointment date.
func (s *Service) SummariesOn(ctx context.Context, date string) ([]*Summary, error) {
	return daterange.FetchInterval[*Summary](ctx, s.summaries, date, string(daterange.Day))
}

func (s *Service) SummariesByInterval(ctx context.Context, ref, interval string) ([]*Summary, error) {
	return daterange.FetchInterval[*Summary](ctx, s.summaries, ref, interval)
}

// MedicalHistory returns every summary recorded for the patient.
func (s *Service) MedicalHistory(ctx context.Context, patientUID string) ([]*Summary, error) {
	patientUID = strings.TrimSpace(patientUID)
	if patientUID == "" {
		return nil, apperr.Validation("patientUID is required")
	}
	items, err := s.summaries.ListByPatient(ctx, patientUID)
	if items == nil && err == nil {
		items = []*Summary{}
	}
	return items, err
}

// UpcomingVisits lists patients whose next visit falls within today and the
// configured number of days after it. Unparsable dates are skipped.
func (s *Service) UpcomingVisits(ctx context.Context) ([]UpcomingVisit, error) {
	items, err := s.summaries.ListWithNextVisit(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	end := today.AddDays(s.upcomingDays)
	out := []UpcomingVisit{}
	for _, sum := range items {
		next, ok := sum.NextVisitDate()
		if !ok {
			s.logger.Debug().Str("patient_uid", sum.PatientUID).Str("next_visit", sum.NextVisit).Msg("skipping unparsable next visit")
			continue
		}
		if next.Within(today, end) {
			out = append(out, UpcomingVisit{PatientUID: sum.PatientUID, PatientName: sum.PatientName, NextVisit: sum.NextVisit})
		}
	}
	return out, nil
}

// PendingProcedures groups the procedures recorded on date per patient, in
// the order patients were first seen.
func (s *Service) PendingProcedures(ctx context.Context, date string) ([]*PendingProcedures, error) {
	items, err := s.SummariesOn(ctx, date)
	if err != nil {
		return nil, err
	}
	out := []*PendingProcedures{}
	byPatient := make(map[string]*PendingProcedures)
	for _, sum := range items {
		group, ok := byPatient[sum.PatientUID]
		if !ok {
			group = &PendingProcedures{
				PatientUID:      sum.PatientUID,
				PatientName:     sum.PatientName,
				AppointmentDate: sum.AppointmentDate,
				Procedures:      []ProcedureEntry{},
			}
			byPatient[sum.PatientUID] = group
			out = append(out, group)
		}
		group.Procedures = append(group.Procedures, ParseProcedures(sum.ProceduresList)...)
	}
	return out, nil
}

// -- Catalogs --

func (s *Service) AddCatalogEntry(ctx context.Context, kind, name string) (*CatalogEntry, error) {
	k, err := ParseCatalogKind(kind)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	e := &CatalogEntry{ID: uuid.New(), Kind: k, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.catalogs.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) ListCatalog(ctx context.Context, kind string) ([]*CatalogEntry, error) {
	k, err := ParseCatalogKind(kind)
	if err != nil {
		return nil, err
	}
	items, err := s.catalogs.List(ctx, k)
	if items == nil && err == nil {
		items = []*CatalogEntry{}
	}
	return items, err
}

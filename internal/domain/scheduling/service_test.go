package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/domain/identity"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// -- Mocks --

type mockAppointmentRepo struct {
	items []*Appointment
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.items = append(m.items, a)
	return nil
}

func (m *mockAppointmentRepo) Exists(_ context.Context, uid string, date daterange.Date) (bool, error) {
	for _, a := range m.items {
		if a.PatientUID == uid && a.AppointmentDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	return m.items, len(m.items), nil
}

func (m *mockAppointmentRepo) ListByRange(_ context.Context, start, end daterange.Date) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.items {
		if a.AppointmentDate.Within(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockPatients map[string]*identity.Patient

func (m mockPatients) GetPatient(_ context.Context, uid string) (*identity.Patient, error) {
	if p, ok := m[uid]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("patient")
}

func newTestService() (*Service, *mockAppointmentRepo) {
	repo := &mockAppointmentRepo{}
	patients := mockPatients{
		"P001": {PatientUID: "P001", PatientName: "Asha Rao", MobileNumber: "98765", PurposeOfVisit: "Acne", Gender: "F"},
	}
	return NewService(repo, patients, zerolog.Nop()), repo
}

func TestBook_CopiesPatientDetails(t *testing.T) {
	svc, repo := newTestService()
	a := &Appointment{PatientUID: "P001", AppointmentDate: daterange.Of(2024, time.June, 3)}
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.items[0]
	if got.PatientName != "Asha Rao" || got.PurposeOfVisit != "Acne" || got.Gender != "F" || got.MobileNumber != "98765" {
		t.Errorf("expected patient details copied, got %+v", got)
	}
}

func TestBook_OnePerPatientPerDate(t *testing.T) {
	svc, repo := newTestService()
	date := daterange.Of(2024, time.June, 3)
	if err := svc.Book(context.Background(), &Appointment{PatientUID: "P001", AppointmentDate: date}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Book(context.Background(), &Appointment{PatientUID: "P001", AppointmentDate: date})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if err := svc.Book(context.Background(), &Appointment{PatientUID: "P001", AppointmentDate: date.AddDays(1)}); err != nil {
		t.Errorf("another date must be accepted: %v", err)
	}
	if len(repo.items) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(repo.items))
	}
}

func TestBook_Errors(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.Book(context.Background(), &Appointment{PatientUID: "P404", AppointmentDate: daterange.Of(2024, 1, 1)}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown patient, got %v", err)
	}
	if err := svc.Book(context.Background(), &Appointment{PatientUID: "P001"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListOnAndInterval(t *testing.T) {
	svc, _ := newTestService()
	svc.patients.(mockPatients)["P002"] = &identity.Patient{PatientUID: "P002", PatientName: "Ravi"}
	_ = svc.Book(context.Background(), &Appointment{PatientUID: "P001", AppointmentDate: daterange.Of(2024, time.June, 3)})
	_ = svc.Book(context.Background(), &Appointment{PatientUID: "P002", AppointmentDate: daterange.Of(2024, time.June, 5)})

	day, err := svc.ListOn(context.Background(), "2024-06-03")
	if err != nil || len(day) != 1 {
		t.Errorf("expected 1 appointment, got %d (%v)", len(day), err)
	}
	week, err := svc.ListByInterval(context.Background(), "2024-06-01", "week")
	if err != nil || len(week) != 2 {
		t.Errorf("expected 2 appointments, got %d (%v)", len(week), err)
	}
	if _, err := svc.ListOn(context.Background(), "June 3"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

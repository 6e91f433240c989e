package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

// -- Mock Repository --

type mockPatientRepo struct {
	items []*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.items {
		if existing.PatientUID == p.PatientUID {
			return apperr.ErrConflict
		}
	}
	m.items = append(m.items, p)
	return nil
}

func (m *mockPatientRepo) GetByUID(_ context.Context, uid string) (*Patient, error) {
	for _, p := range m.items {
		if p.PatientUID == uid {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient")
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	return page(m.items, limit, offset), len(m.items), nil
}

func (m *mockPatientRepo) Search(_ context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	var matched []*Patient
	q = strings.ToLower(q)
	for _, p := range m.items {
		if strings.Contains(strings.ToLower(p.PatientUID+" "+p.PatientName+" "+p.MobileNumber), q) {
			matched = append(matched, p)
		}
	}
	return page(matched, limit, offset), len(matched), nil
}

func page(items []*Patient, limit, offset int) []*Patient {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func newTestService() (*Service, *mockPatientRepo) {
	repo := newMockPatientRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestRegisterPatient(t *testing.T) {
	svc, repo := newTestService()
	p := &Patient{PatientUID: " P001 ", PatientName: "Asha Rao", MobileNumber: "9876543210", Gender: "F"}
	if err := svc.RegisterPatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected ID to be set")
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if repo.items[0].PatientUID != "P001" {
		t.Errorf("expected trimmed uid, got %q", repo.items[0].PatientUID)
	}

	dup := &Patient{PatientUID: "P001", PatientName: "Other", MobileNumber: "1"}
	if err := svc.RegisterPatient(context.Background(), dup); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterPatient_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    Patient
	}{
		{"missing uid", Patient{PatientName: "A", MobileNumber: "1"}},
		{"missing name", Patient{PatientUID: "P1", MobileNumber: "1"}},
		{"missing mobile", Patient{PatientUID: "P1", PatientName: "A"}},
		{"negative age", Patient{PatientUID: "P1", PatientName: "A", MobileNumber: "1", Age: -1}},
		{"bad email", Patient{PatientUID: "P1", PatientName: "A", MobileNumber: "1", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			if err := svc.RegisterPatient(context.Background(), &tt.p); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(repo.items) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestListPatients_Search(t *testing.T) {
	svc, _ := newTestService()
	for _, p := range []*Patient{
		{PatientUID: "P001", PatientName: "Asha Rao", MobileNumber: "9876500001"},
		{PatientUID: "P002", PatientName: "Ravi Kumar", MobileNumber: "9876500002"},
		{PatientUID: "P003", PatientName: "Meera Rao", MobileNumber: "9876500003"},
	} {
		if err := svc.RegisterPatient(context.Background(), p); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	all, total, err := svc.ListPatients(context.Background(), "", 2, 0)
	if err != nil || total != 3 || len(all) != 2 {
		t.Errorf("expected 2 of 3, got %d of %d (%v)", len(all), total, err)
	}
	found, total, err := svc.ListPatients(context.Background(), " rao ", 10, 0)
	if err != nil || total != 2 || len(found) != 2 {
		t.Errorf("expected 2 matches, got %d (%v)", total, err)
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.GetPatient(context.Background(), "P404"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

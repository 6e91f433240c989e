package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SMRFT/Cosmetalogy-final/internal/domain/clinical"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/identity"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/scheduling"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

func TestPatients_RegisterSearchAndBook(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	patients := identity.NewService(identity.NewPatientRepoPG(pool), testLogger())
	appointments := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool), patients, testLogger())

	p := &identity.Patient{
		PatientUID:     "SP0001",
		PatientName:    "Anitha Raman",
		MobileNumber:   "9876543210",
		Age:            31,
		Gender:         "Female",
		Email:          "anitha@example.com",
		PurposeOfVisit: "Acne treatment",
	}
	if err := patients.RegisterPatient(ctx, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	dup := &identity.Patient{PatientUID: "SP0001", PatientName: "Someone Else", MobileNumber: "1"}
	if err := patients.RegisterPatient(ctx, dup); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate patientUID, got %v", err)
	}

	found, total, err := patients.ListPatients(ctx, "anitha", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].PatientUID != "SP0001" {
		t.Errorf("expected to find SP0001, got %d results", total)
	}

	date := daterange.Of(2024, time.May, 20)
	appt := &scheduling.Appointment{PatientUID: "SP0001", AppointmentDate: date}
	if err := appointments.Book(ctx, appt); err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Gender != "Female" || appt.PurposeOfVisit != "Acne treatment" {
		t.Errorf("expected patient details to be copied, got %+v", appt)
	}

	again := &scheduling.Appointment{PatientUID: "SP0001", AppointmentDate: date}
	if err := appointments.Book(ctx, again); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict for second booking on the same date, got %v", err)
	}
	unknown := &scheduling.Appointment{PatientUID: "NOPE", AppointmentDate: date}
	if err := appointments.Book(ctx, unknown); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown patient, got %v", err)
	}

	week, err := appointments.ListByInterval(ctx, "2024-05-15", "week")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(week) != 1 {
		t.Errorf("expected 1 appointment in the week, got %d", len(week))
	}
}

func TestClinical_SummariesVisitsAndCatalogs(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	svc := clinical.NewService(
		clinical.NewVitalRepoPG(pool),
		clinical.NewSummaryRepoPG(pool),
		clinical.NewCatalogRepoPG(pool),
		7,
		testLogger(),
	)
	today := daterange.Today()

	vital := &clinical.Vital{
		PatientUID:    "SP0002",
		PatientName:   "Kiran",
		Height:        decimal.RequireFromString("172.5"),
		Weight:        decimal.RequireFromString("68.2"),
		PulseRate:     72,
		BloodPressure: "120/80",
	}
	if err := svc.RecordVital(ctx, vital); err != nil {
		t.Fatalf("record vital: %v", err)
	}
	vitals, err := svc.ListVitals(ctx, "SP0002")
	if err != nil || len(vitals) != 1 {
		t.Fatalf("expected one vital, got %d %v", len(vitals), err)
	}
	if !vitals[0].Height.Equal(decimal.RequireFromString("172.5")) {
		t.Errorf("expected height 172.5, got %s", vitals[0].Height)
	}

	summaries := []*clinical.Summary{
		{
			PatientUID:      "SP0002",
			PatientName:     "Kiran",
			AppointmentDate: today,
			Diagnosis:       "Melasma",
			ProceduresList:  "Procedure: Chemical peel - Date: " + today.String(),
			NextVisit:       today.AddDays(3).Format(clinical.NextVisitLayout),
		},
		{
			PatientUID:      "SP0003",
			PatientName:     "Meena",
			AppointmentDate: today,
			Diagnosis:       "Hair fall",
			NextVisit:       today.AddDays(30).Format(clinical.NextVisitLayout),
		},
	}
	for _, s := range summaries {
		if err := svc.RecordSummary(ctx, s); err != nil {
			t.Fatalf("record summary: %v", err)
		}
	}

	upcoming, err := svc.UpcomingVisits(ctx)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].PatientUID != "SP0002" {
		t.Errorf("expected only SP0002 upcoming, got %+v", upcoming)
	}

	pending, err := svc.PendingProcedures(ctx, today.String())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected both patients seen today, got %+v", pending)
	}
	for _, p := range pending {
		switch p.PatientUID {
		case "SP0002":
			if len(p.Procedures) != 1 || p.Procedures[0].Procedure != "Chemical peel" {
				t.Errorf("unexpected procedures for SP0002 %+v", p.Procedures)
			}
		case "SP0003":
			if p.Procedures == nil || len(p.Procedures) != 0 {
				t.Errorf("expected an empty procedure list for SP0003, got %+v", p.Procedures)
			}
		default:
			t.Errorf("unexpected patient %s", p.PatientUID)
		}
	}

	history, err := svc.MedicalHistory(ctx, "SP0002")
	if err != nil || len(history) != 1 {
		t.Errorf("expected one summary in history, got %d %v", len(history), err)
	}

	if _, err := svc.AddCatalogEntry(ctx, "diagnosis", "Melasma"); err != nil {
		t.Fatalf("add catalog entry: %v", err)
	}
	if _, err := svc.AddCatalogEntry(ctx, "diagnosis", "Melasma"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate catalog entry, got %v", err)
	}
	entries, err := svc.ListCatalog(ctx, "diagnosis")
	if err != nil || len(entries) != 1 {
		t.Errorf("expected one diagnosis entry, got %d %v", len(entries), err)
	}
}

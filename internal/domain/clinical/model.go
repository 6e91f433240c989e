package clinical

import (
	"bufio"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// NextVisitLayout is the DD/MM/YYYY format of Summary.NextVisit.
const NextVisitLayout = "02/01/2006"

// Vital is one set of measurements taken at a visit.
type Vital struct {
	ID            uuid.UUID       `json:"id"`
	PatientUID    string          `json:"patientUID"`
	PatientName   string          `json:"patientName"`
	MobileNumber  string          `json:"mobileNumber"`
	Height        decimal.Decimal `json:"height"`
	Weight        decimal.Decimal `json:"weight"`
	PulseRate     int             `json:"pulseRate"`
	BloodPressure string          `json:"bloodPressure"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (v *Vital) Validate() error {
	v.PatientUID = strings.TrimSpace(v.PatientUID)
	if v.PatientUID == "" {
		return apperr.Validation("patientUID is required")
	}
	if v.Height.IsNegative() || v.Weight.IsNegative() || v.PulseRate < 0 {
		return apperr.Validation("vitals must not be negative")
	}
	return nil
}

// Summary is the doctor's record of a visit.
type Summary struct {
	ID              uuid.UUID      `json:"id"`
	PatientUID      string         `json:"patientUID"`
	PatientName     string         `json:"patientName"`
	AppointmentDate daterange.Date `json:"appointmentDate"`
	Diagnosis       string         `json:"diagnosis"`
	Complaints      string         `json:"complaints"`
	Findings        string         `json:"findings"`
	Prescription    string         `json:"prescription"`
	Plans           string         `json:"plans"`
	Tests           string         `json:"tests"`
	ProceduresList  string         `json:"proceduresList"`
	NextVisit       string         `json:"nextVisit"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (s *Summary) Validate() error {
	s.PatientUID = strings.TrimSpace(s.PatientUID)
	s.NextVisit = strings.TrimSpace(s.NextVisit)
	if s.PatientUID == "" {
		return apperr.Validation("patientUID is required")
	}
	if s.AppointmentDate.IsZero() {
		return apperr.Validation("appointmentDate is required")
	}
	if s.NextVisit != "" {
		if _, err := time.Parse(NextVisitLayout, s.NextVisit); err != nil {
			return apperr.Validation("nextVisit must be DD/MM/YYYY, got %q", s.NextVisit)
		}
	}
	return nil
}

// NextVisitDate parses NextVisit. ok is false when it is empty or malformed.
func (s *Summary) NextVisitDate() (daterange.Date, bool) {
	t, err := time.Parse(NextVisitLayout, strings.TrimSpace(s.NextVisit))
	if err != nil {
		return daterange.Date{}, false
	}
	return daterange.NewDate(t), true
}

// ProcedureEntry is one line of a summary's procedures list.
type ProcedureEntry struct {
	Procedure     string `json:"procedure"`
	ProcedureDate string `json:"procedureDate"`
}

// ParseProcedures reads lines of the form "Procedure: <name> - Date: <date>".
// Lines that do not follow the form are skipped.
func ParseProcedures(list string) []ProcedureEntry {
	var out []ProcedureEntry
	sc := bufio.NewScanner(strings.NewReader(list))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, "Procedure:")
		if !ok {
			continue
		}
		name, date, ok := strings.Cut(rest, "- Date:")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, ProcedureEntry{Procedure: name, ProcedureDate: strings.TrimSpace(date)})
	}
	return out
}

// UpcomingVisit is a patient due back within the look-ahead window.
type UpcomingVisit struct {
	PatientUID  string `json:"patientUID"`
	PatientName string `json:"patientName"`
	NextVisit   string `json:"nextVisit"`
}

// PendingProcedures groups the procedures recorded for one patient on a date.
type PendingProcedures struct {
	PatientUID      string           `json:"patientUID"`
	PatientName     string           `json:"patientName"`
	AppointmentDate daterange.Date   `json:"appointmentDate"`
	Procedures      []ProcedureEntry `json:"procedures"`
}

// CatalogKind names one of the lookup lists used while writing summaries.
type CatalogKind string

const (
	CatalogDiagnosis  CatalogKind = "diagnosis"
	CatalogComplaints CatalogKind = "complaints"
	CatalogFindings   CatalogKind = "findings"
	CatalogTests      CatalogKind = "tests"
	CatalogProcedures CatalogKind = "procedures"
)

func ParseCatalogKind(s string) (CatalogKind, error) {
	switch k := CatalogKind(strings.ToLower(strings.TrimSpace(s))); k {
	case CatalogDiagnosis, CatalogComplaints, CatalogFindings, CatalogTests, CatalogProcedures:
		return k, nil
	default:
		return "", apperr.Validation("unknown catalog %q", s)
	}
}

type CatalogEntry struct {
	ID        uuid.UUID   `json:"id"`
	Kind      CatalogKind `json:"kind"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"createdAt"`
}

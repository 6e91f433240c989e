package clinical

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// =========== Vitals ===========

type vitalRepoPG struct {
	pool *pgxpool.Pool
}

func NewVitalRepoPG(pool *pgxpool.Pool) VitalRepository {
	return &vitalRepoPG{pool: pool}
}

func (r *vitalRepoPG) Create(ctx context.Context, v *Vital) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO vitals (id, patient_uid, patient_name, mobile_number, height, weight,
			pulse_rate, blood_pressure, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.ID, v.PatientUID, v.PatientName, v.MobileNumber, v.Height, v.Weight,
		v.PulseRate, v.BloodPressure, v.CreatedAt)
	return db.Classify("insert vital", err)
}

func (r *vitalRepoPG) ListByPatient(ctx context.Context, patientUID string) ([]*Vital, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_uid, patient_name, mobile_number, height, weight,
			pulse_rate, blood_pressure, created_at
		FROM vitals WHERE patient_uid = $1 ORDER BY created_at DESC`, patientUID)
	if err != nil {
		return nil, db.Classify("list vitals", err)
	}
	defer rows.Close()
	var items []*Vital
	for rows.Next() {
		var v Vital
		if err := rows.Scan(&v.ID, &v.PatientUID, &v.PatientName, &v.MobileNumber, &v.Height, &v.Weight,
			&v.PulseRate, &v.BloodPressure, &v.CreatedAt); err != nil {
			return nil, db.Classify("scan vital", err)
		}
		items = append(items, &v)
	}
	return items, db.Classify("list vitals", rows.Err())
}

// =========== Summaries ===========

type summaryRepoPG struct {
	pool *pgxpool.Pool
}

func NewSummaryRepoPG(pool *pgxpool.Pool) SummaryRepository {
	return &summaryRepoPG{pool: pool}
}

const summaryCols = `id, patient_uid, patient_name, appointment_date, diagnosis, complaints,
	findings, prescription, plans, tests, procedures_list, next_visit, created_at`

func (r *summaryRepoPG) Create(ctx context.Context, s *Summary) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO visit_summaries (`+summaryCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.PatientUID, s.PatientName, s.AppointmentDate.Time, s.Diagnosis, s.Complaints,
		s.Findings, s.Prescription, s.Plans, s.Tests, s.ProceduresList, s.NextVisit, s.CreatedAt)
	return db.Classify("insert visit summary", err)
}

func (r *summaryRepoPG) query(ctx context.Context, where string, args ...interface{}) ([]*Summary, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+summaryCols+` FROM visit_summaries `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, db.Classify("list visit summaries", err)
	}
	defer rows.Close()
	var items []*Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, db.Classify("scan visit summary", err)
		}
		items = append(items, s)
	}
	return items, db.Classify("list visit summaries", rows.Err())
}

func scanSummary(row pgx.Row) (*Summary, error) {
	var s Summary
	err := row.Scan(&s.ID, &s.PatientUID, &s.PatientName, &s.AppointmentDate.Time, &s.Diagnosis, &s.Complaints,
		&s.Findings, &s.Prescription, &s.Plans, &s.Tests, &s.ProceduresList, &s.NextVisit, &s.CreatedAt)
	return &s, err
}

func (r *summaryRepoPG) ListByRange(ctx context.Context, start, end daterange.Date) ([]*Summary, error) {
	return r.query(ctx, `WHERE appointment_date BETWEEN $1 AND $2`, start.Time, end.Time)
}

func (r *summaryRepoPG) ListByPatient(ctx context.Context, patientUID string) ([]*Summary, error) {
	return r.query(ctx, `WHERE patient_uid = $1`, patientUID)
}

func (r *summaryRepoPG) ListWithNextVisit(ctx context.Context) ([]*Summary, error) {
	return r.query(ctx, `WHERE next_visit <> ''`)
}

// =========== Catalogs ===========

type catalogRepoPG struct {
	pool *pgxpool.Pool
}

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

func (r *catalogRepoPG) Create(ctx context.Context, e *CatalogEntry) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO catalog_entries (id, kind, name, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Kind, e.Name, e.CreatedAt)
	return db.Classify("insert catalog entry", err)
}

func (r *catalogRepoPG) List(ctx context.Context, kind CatalogKind) ([]*CatalogEntry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, kind, name, created_at FROM catalog_entries WHERE kind = $1 ORDER BY name`, kind)
	if err != nil {
		return nil, db.Classify("list catalog entries", err)
	}
	defer rows.Close()
	var items []*CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &e.CreatedAt); err != nil {
			return nil, db.Classify("scan catalog entry", err)
		}
		items = append(items, &e)
	}
	return items, db.Classify("list catalog entries", rows.Err())
}

package scheduling

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_uid, patient_name, mobile_number, appointment_date,
	purpose_of_visit, gender, created_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientUID, &a.PatientName, &a.MobileNumber, &a.AppointmentDate.Time,
		&a.PurposeOfVisit, &a.Gender, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointments (`+apptCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientUID, a.PatientName, a.MobileNumber, a.AppointmentDate.Time,
		a.PurposeOfVisit, a.Gender, a.CreatedAt)
	return db.Classify("insert appointment", err)
}

func (r *appointmentRepoPG) Exists(ctx context.Context, patientUID string, date daterange.Date) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE patient_uid = $1 AND appointment_date = $2)`,
		patientUID, date.Time).Scan(&exists)
	return exists, db.Classify("check appointment", err)
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, db.Classify("count appointments", err)
	}
	rows, err := conn.Query(ctx, `SELECT `+apptCols+` FROM appointments
		ORDER BY appointment_date DESC, created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify("list appointments", err)
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *appointmentRepoPG) ListByRange(ctx context.Context, start, end daterange.Date) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY created_at, id`, start.Time, end.Time)
	if err != nil {
		return nil, db.Classify("list appointments", err)
	}
	return r.collect(rows)
}

func (r *appointmentRepoPG) collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, db.Classify("scan appointment", err)
		}
		items = append(items, a)
	}
	return items, db.Classify("list appointments", rows.Err())
}

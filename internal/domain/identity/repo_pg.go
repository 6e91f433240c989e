package identity

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, patient_uid, patient_name, mobile_number, age, gender, email,
	language, purpose_of_visit, address, created_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientUID, &p.PatientName, &p.MobileNumber, &p.Age, &p.Gender, &p.Email,
		&p.Language, &p.PurposeOfVisit, &p.Address, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.PatientUID, p.PatientName, p.MobileNumber, p.Age, p.Gender, p.Email,
		p.Language, p.PurposeOfVisit, p.Address, p.CreatedAt)
	return db.Classify("insert patient", err)
}

func (r *patientRepoPG) GetByUID(ctx context.Context, patientUID string) (*Patient, error) {
	p, err := r.scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_uid = $1`, patientUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, db.Classify("get patient", err)
	}
	return p, nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return r.Search(ctx, "", limit, offset)
}

func (r *patientRepoPG) Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	if q != "" {
		where = ` WHERE patient_uid ILIKE $1 OR patient_name ILIKE $1 OR mobile_number ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify("count patients", err)
	}

	n := len(args)
	query := `SELECT ` + patientCols + ` FROM patients` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Classify("search patients", err)
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, db.Classify("scan patient", err)
		}
		items = append(items, p)
	}
	return items, total, db.Classify("search patients", rows.Err())
}

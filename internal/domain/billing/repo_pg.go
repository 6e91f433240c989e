package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// ---- Counters ----

type counterRepoPG struct{ pool *pgxpool.Pool }

func NewCounterRepoPG(pool *pgxpool.Pool) CounterRepository {
	return &counterRepoPG{pool: pool}
}

func (r *counterRepoPG) Increment(ctx context.Context, prefix string, year int) (int, bool, error) {
	var seq int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE bill_counters SET last_seq = last_seq + 1, updated_at = NOW()
		WHERE prefix = $1 AND year = $2
		RETURNING last_seq`, prefix, year).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, db.Classify("increment bill counter", err)
	}
	return seq, true, nil
}

func (r *counterRepoPG) Init(ctx context.Context, prefix string, year int, seed int) (int, error) {
	var seq int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO bill_counters (prefix, year, last_seq) VALUES ($1, $2, $3 + 1)
		ON CONFLICT (prefix, year) DO UPDATE SET last_seq = bill_counters.last_seq + 1, updated_at = NOW()
		RETURNING last_seq`, prefix, year, seed).Scan(&seq)
	if err != nil {
		return 0, db.Classify("init bill counter", err)
	}
	return seq, nil
}

// ---- Billing records ----

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

const recordCols = `id, patient_uid, patient_name, appointment_date, line_items,
	net_amount, discount, payment_type, section, bill_number, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientUID, &rec.PatientName, &rec.AppointmentDate.Time, &rec.LineItems,
		&rec.NetAmount, &rec.Discount, &rec.PaymentType, &rec.Section, &rec.BillNumber, &rec.CreatedAt)
	return &rec, err
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO billing_records (id, patient_uid, patient_name, appointment_date, line_items,
			net_amount, discount, payment_type, section, bill_number, prefix, year, seq, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.ID, rec.PatientUID, rec.PatientName, rec.AppointmentDate.Time, rec.LineItems,
		rec.NetAmount, rec.Discount, rec.PaymentType, rec.Section, rec.BillNumber,
		rec.Prefix, rec.Year, rec.Seq, rec.CreatedAt)
	return db.Classify("insert billing record", err)
}

// LastSequence returns the highest sequence issued for the prefix and year
// under the payment type.
func (r *recordRepoPG) LastSequence(ctx context.Context, pt PaymentType, prefix string, year int) (int, error) {
	var last int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM billing_records
		WHERE payment_type = $1 AND prefix = $2 AND year = $3`, pt, prefix, year).Scan(&last)
	if err != nil {
		return 0, db.Classify("last bill sequence", err)
	}
	return last, nil
}

func (r *recordRepoPG) UpdateLineItems(ctx context.Context, patientUID string, date daterange.Date, items []LineItem) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE billing_records SET line_items = $3
		WHERE id = (
			SELECT id FROM billing_records
			WHERE patient_uid = $1 AND appointment_date = $2
			ORDER BY created_at
			LIMIT 1
		)`, patientUID, date.Time, items)
	if err != nil {
		return db.Classify("update billing line items", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("billing record")
	}
	return nil
}

func (r *recordRepoPG) DeleteByPatient(ctx context.Context, patientUID string) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM billing_records WHERE patient_uid = $1`, patientUID)
	if err != nil {
		return 0, db.Classify("delete billing records", err)
	}
	return tag.RowsAffected(), nil
}

func (r *recordRepoPG) ListByRange(ctx context.Context, start, end daterange.Date) ([]*Record, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+recordCols+` FROM billing_records
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY created_at, id`, start.Time, end.Time)
	if err != nil {
		return nil, db.Classify("list billing records", err)
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, db.Classify("scan billing record", err)
		}
		items = append(items, rec)
	}
	return items, db.Classify("list billing records", rows.Err())
}

// ---- Procedure bills ----

type procedureBillRepoPG struct{ pool *pgxpool.Pool }

func NewProcedureBillRepoPG(pool *pgxpool.Pool) ProcedureBillRepository {
	return &procedureBillRepoPG{pool: pool}
}

const procedureBillCols = `id, patient_uid, patient_name, appointment_date, procedures, procedure_net_amount,
	consumer, consumer_net_amount, payment_type, consumer_bill_number, procedure_bill_number, created_at`

func (r *procedureBillRepoPG) Create(ctx context.Context, b *ProcedureBill) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO procedure_bills (`+procedureBillCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		b.ID, b.PatientUID, b.PatientName, b.AppointmentDate.Time, b.Procedures, b.ProcedureNetAmount,
		b.Consumer, b.ConsumerNetAmount, b.PaymentType, b.ConsumerBillNumber, b.ProcedureBillNumber, b.CreatedAt)
	return db.Classify("insert procedure bill", err)
}

// LastSequence scans both bill number columns, since a procedure bill takes
// a consumer number from the same scope as checkout.
func (r *procedureBillRepoPG) LastSequence(ctx context.Context, _ PaymentType, prefix string, year int) (int, error) {
	var last int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(split_part(n, '/', 3) AS INTEGER)), 0) FROM (
			SELECT consumer_bill_number AS n FROM procedure_bills
			UNION ALL
			SELECT procedure_bill_number FROM procedure_bills
		) numbers
		WHERE n LIKE $1`, fmt.Sprintf("%s/%d/%%", prefix, year)).Scan(&last)
	if err != nil {
		return 0, db.Classify("last procedure bill sequence", err)
	}
	return last, nil
}

func (r *procedureBillRepoPG) ListByRange(ctx context.Context, start, end daterange.Date) ([]*ProcedureBill, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+procedureBillCols+` FROM procedure_bills
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY created_at, id`, start.Time, end.Time)
	if err != nil {
		return nil, db.Classify("list procedure bills", err)
	}
	defer rows.Close()
	var items []*ProcedureBill
	for rows.Next() {
		var b ProcedureBill
		if err := rows.Scan(&b.ID, &b.PatientUID, &b.PatientName, &b.AppointmentDate.Time, &b.Procedures, &b.ProcedureNetAmount,
			&b.Consumer, &b.ConsumerNetAmount, &b.PaymentType, &b.ConsumerBillNumber, &b.ProcedureBillNumber, &b.CreatedAt); err != nil {
			return nil, db.Classify("scan procedure bill", err)
		}
		items = append(items, &b)
	}
	return items, db.Classify("list procedure bills", rows.Err())
}

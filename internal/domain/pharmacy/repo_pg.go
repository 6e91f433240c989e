package pharmacy

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const medicineCols = `id, medicine_name, company_name, price, cgst_percentage, cgst_value,
	sgst_percentage, sgst_value, new_stock, old_stock, received_date, expiry_date,
	batch_number, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	var received, expiry *time.Time
	err := row.Scan(&m.ID, &m.MedicineName, &m.CompanyName, &m.Price, &m.CGSTPercentage, &m.CGSTValue,
		&m.SGSTPercentage, &m.SGSTValue, &m.NewStock, &m.OldStock, &received, &expiry,
		&m.BatchNumber, &m.CreatedAt, &m.UpdatedAt)
	if received != nil {
		m.ReceivedDate = daterange.NewDate(*received)
	}
	if expiry != nil {
		m.ExpiryDate = daterange.NewDate(*expiry)
	}
	return &m, err
}

// nullDate stores a zero date as NULL.
func nullDate(d daterange.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&total); err != nil {
		return nil, 0, db.Classify("count medicines", err)
	}
	rows, err := q.Query(ctx, `SELECT `+medicineCols+` FROM medicines
		ORDER BY medicine_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.Classify("list medicines", err)
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, db.Classify("scan medicine", err)
		}
		items = append(items, m)
	}
	return items, total, db.Classify("list medicines", rows.Err())
}

func (r *repoPG) Scan(ctx context.Context, fn func(*Medicine) error) error {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+medicineCols+` FROM medicines ORDER BY medicine_name`)
	if err != nil {
		return db.Classify("scan medicines", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return db.Classify("scan medicine", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return db.Classify("scan medicines", rows.Err())
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	m, err := scanMedicine(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE medicine_name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine")
		}
		return nil, db.Classify("get medicine", err)
	}
	return m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Medicine) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medicines (`+medicineCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		m.ID, m.MedicineName, m.CompanyName, m.Price, m.CGSTPercentage, m.CGSTValue,
		m.SGSTPercentage, m.SGSTValue, m.NewStock, m.OldStock, nullDate(m.ReceivedDate), nullDate(m.ExpiryDate),
		m.BatchNumber, m.CreatedAt, m.UpdatedAt)
	return db.Classify("insert medicine", err)
}

func (r *repoPG) Upsert(ctx context.Context, m *Medicine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medicines (`+medicineCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (medicine_name, batch_number) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			price = EXCLUDED.price,
			cgst_percentage = EXCLUDED.cgst_percentage,
			cgst_value = EXCLUDED.cgst_value,
			sgst_percentage = EXCLUDED.sgst_percentage,
			sgst_value = EXCLUDED.sgst_value,
			new_stock = EXCLUDED.new_stock,
			old_stock = EXCLUDED.old_stock,
			received_date = EXCLUDED.received_date,
			expiry_date = EXCLUDED.expiry_date,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		m.ID, m.MedicineName, m.CompanyName, m.Price, m.CGSTPercentage, m.CGSTValue,
		m.SGSTPercentage, m.SGSTValue, m.NewStock, m.OldStock, nullDate(m.ReceivedDate), nullDate(m.ExpiryDate),
		m.BatchNumber, m.CreatedAt, m.UpdatedAt).Scan(&m.ID, &m.CreatedAt)
	return db.Classify("upsert medicine", err)
}

func (r *repoPG) DeleteByName(ctx context.Context, name string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM medicines WHERE medicine_name = $1`, name)
	if err != nil {
		return db.Classify("delete medicine", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine")
	}
	return nil
}

func (r *repoPG) DeleteAll(ctx context.Context) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM medicines`)
	return db.Classify("delete medicines", err)
}

func (r *repoPG) CompareAndSetStock(ctx context.Context, name string, expected, next int) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE medicines SET old_stock = $3, updated_at = NOW()
		WHERE medicine_name = $1 AND old_stock = $2`, name, expected, next)
	if err != nil {
		return false, db.Classify("update medicine stock", err)
	}
	return tag.RowsAffected() == 1, nil
}

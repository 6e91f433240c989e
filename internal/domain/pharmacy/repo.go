package pharmacy

import "context"

type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	// Scan visits every medicine in name order.
	Scan(ctx context.Context, fn func(*Medicine) error) error
	GetByName(ctx context.Context, name string) (*Medicine, error)
	Create(ctx context.Context, m *Medicine) error
	// Upsert inserts m or overwrites the medicine with the same name and batch.
	Upsert(ctx context.Context, m *Medicine) error
	DeleteByName(ctx context.Context, name string) error
	// DeleteAll removes every medicine.
	DeleteAll(ctx context.Context) error
	// CompareAndSetStock sets old_stock to next only if it still equals
	// expected. ok is false when another writer got there first.
	CompareAndSetStock(ctx context.Context, name string, expected, next int) (ok bool, err error)
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

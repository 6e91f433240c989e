package billing

import (
	"context"

	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

// CounterRepository stores the last issued sequence per (prefix, year).
type CounterRepository interface {
	// Increment bumps an existing counter. ok is false when the counter does not exist.
	Increment(ctx context.Context, prefix string, year int) (seq int, ok bool, err error)
	// Init creates the counter at seed+1, or increments it if a concurrent
	// caller created it first, and returns the new value.
	Init(ctx context.Context, prefix string, year int, seed int) (int, error)
}

// SequenceSeeder finds the last sequence already issued in a scope, 0 if none.
type SequenceSeeder interface {
	LastSequence(ctx context.Context, pt PaymentType, prefix string, year int) (int, error)
}

type RecordRepository interface {
	SequenceSeeder
	Create(ctx context.Context, r *Record) error
	UpdateLineItems(ctx context.Context, patientUID string, date daterange.Date, items []LineItem) error
	DeleteByPatient(ctx context.Context, patientUID string) (int64, error)
	ListByRange(ctx context.Context, start, end daterange.Date) ([]*Record, error)
}

type ProcedureBillRepository interface {
	SequenceSeeder
	Create(ctx context.Context, b *ProcedureBill) error
	ListByRange(ctx context.Context, start, end daterange.Date) ([]*ProcedureBill, error)
}

// TxRunner runs fn atomically. Stores without multi-document transactions run it directly.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

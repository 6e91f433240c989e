package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

var prefixes = map[PaymentType]map[Section]string{
	Cash: {Pharmacy: "CPhar", Consumer: "CCosu", Procedure: "CProc"},
	Card: {Pharmacy: "Phar", Consumer: "Cosu", Procedure: "Proc"},
}

// PrefixFor returns the bill number prefix of a (paymentType, section) scope.
func PrefixFor(pt PaymentType, sec Section) (string, error) {
	if p, ok := prefixes[pt][sec]; ok {
		return p, nil
	}
	return "", apperr.Validation("unknown payment type and section combination %q/%q", pt, sec)
}

// FormatBillNumber renders {prefix}/{year}/{seq} with seq padded to three digits.
func FormatBillNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s/%d/%03d", prefix, year, seq)
}

// ParseSequence returns the numeric suffix after the last '/' of a bill number.
func ParseSequence(billNumber string) (int, error) {
	i := strings.LastIndexByte(billNumber, '/')
	seq, err := strconv.Atoi(billNumber[i+1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("malformed bill number %q", billNumber)
	}
	return seq, nil
}

// BillNumber is an allocated number with its parts.
type BillNumber struct {
	Prefix string
	Year   int
	Seq    int
}

func (b BillNumber) String() string { return FormatBillNumber(b.Prefix, b.Year, b.Seq) }

// Allocator hands out bill numbers from per (prefix, year) counters. A counter
// that does not exist yet is seeded from the highest bill already issued in its
// scope across every seeder.
type Allocator struct {
	counters CounterRepository
	seeds    []SequenceSeeder
	now      func() time.Time
}

func NewAllocator(counters CounterRepository, seeds ...SequenceSeeder) *Allocator {
	return &Allocator{counters: counters, seeds: seeds, now: time.Now}
}

// WithClock overrides the clock used to pick the bill year.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Allocate returns the next bill number for the scope. It must run in the same
// transaction as the insert that consumes the number.
func (a *Allocator) Allocate(ctx context.Context, pt PaymentType, sec Section) (BillNumber, error) {
	prefix, err := PrefixFor(pt, sec)
	if err != nil {
		return BillNumber{}, err
	}
	year := a.now().Year()

	seq, ok, err := a.counters.Increment(ctx, prefix, year)
	if err != nil {
		return BillNumber{}, err
	}
	if !ok {
		last, err := a.lastSequence(ctx, pt, prefix, year)
		if err != nil {
			return BillNumber{}, err
		}
		if seq, err = a.counters.Init(ctx, prefix, year, last); err != nil {
			return BillNumber{}, err
		}
	}
	return BillNumber{Prefix: prefix, Year: year, Seq: seq}, nil
}

func (a *Allocator) lastSequence(ctx context.Context, pt PaymentType, prefix string, year int) (int, error) {
	last := 0
	for _, seeder := range a.seeds {
		n, err := seeder.LastSequence(ctx, pt, prefix, year)
		if err != nil {
			return 0, err
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}

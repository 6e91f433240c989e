// Package daterange resolves reporting intervals (day, week, month) into
// inclusive calendar date ranges and provides a calendar Date type that
// serializes as YYYY-MM-DD.
package daterange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

// Layout is the wire format of every calendar date.
const Layout = "2006-01-02"

type Interval string

const (
	Day   Interval = "day"
	Week  Interval = "week"
	Month Interval = "month"
)

// Date is a calendar date at midnight UTC.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location and returns it as UTC midnight.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Of builds a Date from its parts.
func Of(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date { return NewDate(time.Now().UTC()) }

// Parse reads a YYYY-MM-DD string. Empty and malformed values are validation errors.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, apperr.Validation("date parameter is missing")
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, apperr.Validation("invalid date format %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(Layout)
}

func (d Date) AddDays(n int) Date { return Date{d.Time.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Within reports whether start <= d <= end.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(Layout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseInterval validates an interval keyword. Matching is exact and
// case-sensitive.
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(s); iv {
	case Day, Week, Month:
		return iv, nil
	default:
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidInterval, s)
	}
}

// Resolve returns the inclusive [start, end] range for interval anchored at ref.
//
// day:   start = end = ref
// week:  start = ref, end = ref + 6 days
// month: first through last day of ref's month
func Resolve(ref Date, interval Interval) (start, end Date, err error) {
	switch interval {
	case Day:
		return ref, ref, nil
	case Week:
		return ref, ref.AddDays(6), nil
	case Month:
		start = Of(ref.Year(), ref.Month(), 1)
		// The 28th plus four days always lands in the following month.
		next := Of(ref.Year(), ref.Month(), 28).AddDays(4)
		end = Of(next.Year(), next.Month(), 1).AddDays(-1)
		return start, end, nil
	default:
		return Date{}, Date{}, fmt.Errorf("%w: %q", apperr.ErrInvalidInterval, interval)
	}
}

// ResolveString parses both the reference date and the interval keyword.
// The interval is checked first so that a bad keyword is reported even when
// the date is missing.
func ResolveString(ref, interval string) (start, end Date, err error) {
	iv, err := ParseInterval(interval)
	if err != nil {
		return Date{}, Date{}, err
	}
	d, err := Parse(ref)
	if err != nil {
		return Date{}, Date{}, err
	}
	return Resolve(d, iv)
}

// RangeSource is any store that can list its records whose date falls in [start, end].
type RangeSource[T any] interface {
	ListByRange(ctx context.Context, start, end Date) ([]T, error)
}

// FetchByRange returns the records of src dated within the inclusive range,
// in the order the store returns them.
func FetchByRange[T any](ctx context.Context, src RangeSource[T], start, end Date) ([]T, error) {
	if end.Before(start) {
		return nil, apperr.Validation("range end %s is before start %s", end, start)
	}
	items, err := src.ListByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// FetchInterval resolves (ref, interval) and fetches the matching records.
func FetchInterval[T any](ctx context.Context, src RangeSource[T], ref, interval string) ([]T, error) {
	start, end, err := ResolveString(ref, interval)
	if err != nil {
		return nil, err
	}
	return FetchByRange(ctx, src, start, end)
}

package pharmacy

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

const DefaultCASRetries = 3

// StockLedger applies sales to medicine stock without ever driving it negative.
type StockLedger struct {
	repo       Repository
	maxRetries int
	today      func() daterange.Date
	logger     zerolog.Logger
}

func NewStockLedger(repo Repository, logger zerolog.Logger) *StockLedger {
	return &StockLedger{
		repo:       repo,
		maxRetries: DefaultCASRetries,
		today:      daterange.Today,
		logger:     logger.With().Str("component", "stock_ledger").Logger(),
	}
}

func (l *StockLedger) SetRetries(n int) {
	if n > 0 {
		l.maxRetries = n
	}
}

// WithToday pins the date expiry is measured from.
func (l *StockLedger) WithToday(today func() daterange.Date) *StockLedger {
	l.today = today
	return l
}

// Decrement subtracts qty from the medicine's sellable stock. A decrement that
// would leave stock negative fails with ErrInsufficientStock and changes nothing.
func (l *StockLedger) Decrement(ctx context.Context, name string, qty Quantity) (*Medicine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("medicine_name is required")
	}
	n, err := ParseQuantity(qty)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		m, err := l.repo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if m.OldStock-n < 0 {
			return nil, fmt.Errorf("%s has %d left, requested %d: %w", name, m.OldStock, n, apperr.ErrInsufficientStock)
		}
		next := m.OldStock - n
		ok, err := l.repo.CompareAndSetStock(ctx, name, m.OldStock, next)
		if err != nil {
			return nil, err
		}
		if ok {
			m.OldStock = next
			return m, nil
		}
		l.logger.Warn().Str("medicine", name).Int("attempt", attempt).Msg("stock changed concurrently, retrying")
	}
	return nil, fmt.Errorf("decrement %s: gave up after %d attempts: %w", name, l.maxRetries, apperr.ErrConflict)
}

// ScanAlerts classifies all stock in one pass. A medicine can be in both lists.
func (l *StockLedger) ScanAlerts(ctx context.Context, threshold, windowDays int) (*Alerts, error) {
	today := l.today()
	alerts := &Alerts{LowQuantity: []*Medicine{}, NearExpiry: []*Medicine{}}
	err := l.repo.Scan(ctx, func(m *Medicine) error {
		if m.IsQuantityLow(threshold) {
			alerts.LowQuantity = append(alerts.LowQuantity, m)
		}
		if m.IsExpiryNear(today, windowDays) {
			alerts.NearExpiry = append(alerts.NearExpiry, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

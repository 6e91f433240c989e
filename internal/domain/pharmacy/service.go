package pharmacy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

// AlertThresholds configure ScanAlerts for the status endpoint.
type AlertThresholds struct {
	LowQuantity      int
	ExpiryWindowDays int
}

type Service struct {
	repo       Repository
	tx         TxRunner
	ledger     *StockLedger
	thresholds AlertThresholds
	logger     zerolog.Logger
}

func NewService(repo Repository, tx TxRunner, thresholds AlertThresholds, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		ledger:     NewStockLedger(repo, logger),
		thresholds: thresholds,
		logger:     logger.With().Str("component", "pharmacy").Logger(),
	}
}

func (s *Service) Ledger() *StockLedger { return s.ledger }

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, name string) (*Medicine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("medicine_name is required")
	}
	return s.repo.GetByName(ctx, name)
}

func prepare(items []*Medicine) error {
	if len(items) == 0 {
		return apperr.Validation("at least one medicine is required")
	}
	now := time.Now().UTC()
	for _, m := range items {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = now
		m.UpdatedAt = now
	}
	return nil
}

// CreateMany inserts every medicine or none of them.
func (s *Service) CreateMany(ctx context.Context, items []*Medicine) error {
	if err := prepare(items); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, m := range items {
			if err := s.repo.Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("count", len(items)).Msg("medicines created")
	return nil
}

// ReplaceAll swaps the whole stock list for items in one transaction.
// Medicines absent from items are removed. Within one request the last
// entry for a (medicine_name, batch_number) key wins.
func (s *Service) ReplaceAll(ctx context.Context, items []*Medicine) error {
	if err := prepare(items); err != nil {
		return err
	}
	type key struct{ name, batch string }
	seen := make(map[key]int, len(items))
	var unique []*Medicine
	for _, m := range items {
		k := key{m.MedicineName, m.BatchNumber}
		if i, ok := seen[k]; ok {
			unique[i] = m
			continue
		}
		seen[k] = len(unique)
		unique = append(unique, m)
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteAll(ctx); err != nil {
			return err
		}
		for _, m := range unique {
			if err := s.repo.Upsert(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("count", len(unique)).Msg("medicines replaced")
	return nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("medicine_name is required")
	}
	return s.repo.DeleteByName(ctx, name)
}

// UpdateStock records a sale of u.Qty units.
func (s *Service) UpdateStock(ctx context.Context, u *StockUpdate) (*Medicine, error) {
	m, err := s.ledger.Decrement(ctx, u.MedicineName, u.Qty)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("medicine", m.MedicineName).Int("old_stock", m.OldStock).Msg("stock decremented")
	return m, nil
}

// Status scans stock with the configured thresholds.
func (s *Service) Status(ctx context.Context) (*Alerts, error) {
	return s.ledger.ScanAlerts(ctx, s.thresholds.LowQuantity, s.thresholds.ExpiryWindowDays)
}

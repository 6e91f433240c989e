package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SMRFT/Cosmetalogy-final/internal/domain/pharmacy"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

func newPharmacyService(pool *pgxpool.Pool) *pharmacy.Service {
	svc := pharmacy.NewService(pharmacy.NewRepoPG(pool), db.NewTxRunner(pool), pharmacy.AlertThresholds{
		LowQuantity:      10,
		ExpiryWindowDays: 30,
	}, testLogger())
	svc.Ledger().SetRetries(50)
	return svc
}

func medicine(name, batch string, stock int, expiry daterange.Date) *pharmacy.Medicine {
	return &pharmacy.Medicine{
		MedicineName:   name,
		CompanyName:    "Acme Pharma",
		Price:          decimal.RequireFromString("12.50"),
		CGSTPercentage: decimal.NewFromInt(6),
		CGSTValue:      decimal.RequireFromString("0.75"),
		SGSTPercentage: decimal.NewFromInt(6),
		SGSTValue:      decimal.RequireFromString("0.75"),
		NewStock:       stock,
		OldStock:       stock,
		ReceivedDate:   daterange.Today(),
		ExpiryDate:     expiry,
		BatchNumber:    batch,
	}
}

func TestStock_DecrementRejectsOverdraw(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	svc := newPharmacyService(pool)

	if err := svc.CreateMany(ctx, []*pharmacy.Medicine{medicine("Paracetamol", "B1", 3, daterange.Today().AddDays(365))}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.UpdateStock(ctx, &pharmacy.StockUpdate{MedicineName: "Paracetamol", Qty: "5"})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	m, err := svc.Get(ctx, "Paracetamol")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.OldStock != 3 {
		t.Errorf("expected stock to stay 3, got %d", m.OldStock)
	}

	m, err = svc.UpdateStock(ctx, &pharmacy.StockUpdate{MedicineName: "Paracetamol", Qty: "3"})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if m.OldStock != 0 {
		t.Errorf("expected stock 0, got %d", m.OldStock)
	}
}

func TestStock_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	svc := newPharmacyService(pool)

	if err := svc.CreateMany(ctx, []*pharmacy.Medicine{medicine("Cetirizine", "C1", 15, daterange.Today().AddDays(200))}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStock(ctx, &pharmacy.StockUpdate{MedicineName: "Cetirizine", Qty: "1"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	m, err := svc.Get(ctx, "Cetirizine")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.OldStock < 0 {
		t.Fatalf("stock went negative: %d", m.OldStock)
	}
	if m.OldStock != 15-succeeded {
		t.Errorf("expected stock %d after %d sales, got %d", 15-succeeded, succeeded, m.OldStock)
	}
}

func TestMedicines_ReplaceAllAndAlerts(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	svc := newPharmacyService(pool)
	today := daterange.Today()

	err := svc.CreateMany(ctx, []*pharmacy.Medicine{
		medicine("Amoxicillin", "A1", 100, today.AddDays(400)),
		medicine("Ibuprofen", "I1", 4, today.AddDays(400)),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Ibuprofen is absent from the payload and Amoxicillin arrives as a new batch.
	err = svc.ReplaceAll(ctx, []*pharmacy.Medicine{
		medicine("Amoxicillin", "A2", 50, today.AddDays(10)),
		medicine("Azithromycin", "Z1", 4, today.AddDays(300)),
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	amox, err := svc.Get(ctx, "Amoxicillin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if amox.BatchNumber != "A2" || amox.OldStock != 50 || !amox.ExpiryDate.Equal(today.AddDays(10)) {
		t.Errorf("expected replaced values, got batch %s stock %d expiry %s", amox.BatchNumber, amox.OldStock, amox.ExpiryDate)
	}
	if !amox.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("expected price 12.50, got %s", amox.Price)
	}
	if _, err := svc.Get(ctx, "Ibuprofen"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected Ibuprofen to be removed by replace, got %v", err)
	}

	items, total, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 medicines, got %d (total %d)", len(items), total)
	}

	alerts, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(alerts.LowQuantity) != 1 || alerts.LowQuantity[0].MedicineName != "Azithromycin" {
		t.Errorf("expected Azithromycin to be low, got %+v", alerts.LowQuantity)
	}
	if len(alerts.NearExpiry) != 1 || alerts.NearExpiry[0].MedicineName != "Amoxicillin" {
		t.Errorf("expected Amoxicillin near expiry, got %+v", alerts.NearExpiry)
	}

	if err := svc.Delete(ctx, "Azithromycin"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "Azithromycin"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

const DefaultConflictRetries = 3

type Service struct {
	records    RecordRepository
	procBills  ProcedureBillRepository
	allocator  *Allocator
	tx         TxRunner
	maxRetries int
	logger     zerolog.Logger
}

func NewService(records RecordRepository, procBills ProcedureBillRepository, counters CounterRepository, tx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		records:    records,
		procBills:  procBills,
		allocator:  NewAllocator(counters, records, procBills),
		tx:         tx,
		maxRetries: DefaultConflictRetries,
		logger:     logger.With().Str("component", "billing").Logger(),
	}
}

// SetConflictRetries bounds how many times a checkout is attempted when its
// bill number collides with a concurrent one.
func (s *Service) SetConflictRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// Allocator exposes the bill number allocator, mainly so tests can pin its clock.
func (s *Service) Allocator() *Allocator { return s.allocator }

// retryOnConflict runs op in a transaction, retrying while it fails with ErrConflict.
func (s *Service) retryOnConflict(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.tx.WithinTx(ctx, fn)
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		s.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("bill number conflict, retrying")
		if ctx.Err() != nil {
			return apperr.Unavailable(op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, s.maxRetries, err)
}

// Checkout validates the request, allocates a bill number for its scope and
// persists the record in the same transaction.
func (s *Service) Checkout(ctx context.Context, req *CheckoutRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var rec *Record
	err := s.retryOnConflict(ctx, "checkout", func(ctx context.Context) error {
		num, err := s.allocator.Allocate(ctx, req.PaymentType, req.Section)
		if err != nil {
			return err
		}
		rec = &Record{
			ID:              uuid.New(),
			PatientUID:      req.PatientUID,
			PatientName:     strings.TrimSpace(req.PatientName),
			AppointmentDate: req.AppointmentDate,
			LineItems:       req.LineItems,
			NetAmount:       req.NetAmount,
			Discount:        req.Discount,
			PaymentType:     req.PaymentType,
			Section:         req.Section,
			BillNumber:      num.String(),
			Prefix:          num.Prefix,
			Year:            num.Year,
			Seq:             num.Seq,
			CreatedAt:       time.Now().UTC(),
		}
		if rec.LineItems == nil {
			rec.LineItems = []LineItem{}
		}
		return s.records.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_number", rec.BillNumber).Str("patient_uid", rec.PatientUID).Msg("bill issued")
	return rec, nil
}

// UpdateLineItems replaces the line items of the bill keyed by (patientUID, appointmentDate).
func (s *Service) UpdateLineItems(ctx context.Context, u *LineItemsUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return s.records.UpdateLineItems(ctx, strings.TrimSpace(u.PatientUID), u.AppointmentDate, u.LineItems)
}

// DeleteByPatient removes every bill issued to the patient.
func (s *Service) DeleteByPatient(ctx context.Context, patientUID string) (int64, error) {
	patientUID = strings.TrimSpace(patientUID)
	if patientUID == "" {
		return 0, apperr.Validation("record_id is required")
	}
	return s.records.DeleteByPatient(ctx, patientUID)
}

// ListByInterval returns the bills dated within the interval around ref.
func (s *Service) ListByInterval(ctx context.Context, ref, interval string) ([]*Record, error) {
	return daterange.FetchInterval[*Record](ctx, s.records, ref, interval)
}

// CreateProcedureBill allocates a Consumer and a Procedure bill number for the
// payment type and persists the bill with both in one transaction.
func (s *Service) CreateProcedureBill(ctx context.Context, b *ProcedureBill) (*ProcedureBill, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Procedures == nil {
		b.Procedures = []LineItem{}
	}
	if b.Consumer == nil {
		b.Consumer = []LineItem{}
	}

	err := s.retryOnConflict(ctx, "procedure bill", func(ctx context.Context) error {
		consumer, err := s.allocator.Allocate(ctx, b.PaymentType, Consumer)
		if err != nil {
			return err
		}
		procedure, err := s.allocator.Allocate(ctx, b.PaymentType, Procedure)
		if err != nil {
			return err
		}
		b.ID = uuid.New()
		b.ConsumerBillNumber = consumer.String()
		b.ProcedureBillNumber = procedure.String()
		b.CreatedAt = time.Now().UTC()
		return s.procBills.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("consumer_bill_number", b.ConsumerBillNumber).
		Str("procedure_bill_number", b.ProcedureBillNumber).
		Str("patient_uid", b.PatientUID).
		Msg("procedure bill issued")
	return b, nil
}

func (s *Service) ListProcedureBillsByInterval(ctx context.Context, ref, interval string) ([]*ProcedureBill, error) {
	return daterange.FetchInterval[*ProcedureBill](ctx, s.procBills, ref, interval)
}

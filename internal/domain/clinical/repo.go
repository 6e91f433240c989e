package clinical

import (
	"context"

	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

type VitalRepository interface {
	Create(ctx context.Context, v *Vital) error
	ListByPatient(ctx context.Context, patientUID string) ([]*Vital, error)
}

type SummaryRepository interface {
	Create(ctx context.Context, s *Summary) error
	ListByRange(ctx context.Context, start, end daterange.Date) ([]*Summary, error)
	ListByPatient(ctx context.Context, patientUID string) ([]*Summary, error)
	// ListWithNextVisit returns every summary whose nextVisit is set.
	ListWithNextVisit(ctx context.Context) ([]*Summary, error)
}

type CatalogRepository interface {
	Create(ctx context.Context, e *CatalogEntry) error
	List(ctx context.Context, kind CatalogKind) ([]*CatalogEntry, error)
}

package identity

import "context"

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByUID(ctx context.Context, patientUID string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// Search matches q against patientUID, name and mobile number.
	Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
}

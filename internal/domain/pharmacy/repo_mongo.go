package pharmacy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/mongodb"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

const medicinesCollection = "medicines"

type medicineDoc struct {
	ID             string          `bson:"_id"`
	MedicineName   string          `bson:"medicine_name"`
	CompanyName    string          `bson:"company_name"`
	Price          bson.Decimal128 `bson:"price"`
	CGSTPercentage bson.Decimal128 `bson:"CGST_percentage"`
	CGSTValue      bson.Decimal128 `bson:"CGST_value"`
	SGSTPercentage bson.Decimal128 `bson:"SGST_percentage"`
	SGSTValue      bson.Decimal128 `bson:"SGST_value"`
	NewStock       int             `bson:"new_stock"`
	OldStock       int             `bson:"old_stock"`
	ReceivedDate   *time.Time      `bson:"received_date,omitempty"`
	ExpiryDate     *time.Time      `bson:"expiry_date,omitempty"`
	BatchNumber    string          `bson:"batch_number"`
	CreatedAt      time.Time       `bson:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at"`
}

func toMedicineDoc(m *Medicine) medicineDoc {
	return medicineDoc{
		ID:             m.ID.String(),
		MedicineName:   m.MedicineName,
		CompanyName:    m.CompanyName,
		Price:          mongodb.Decimal128(m.Price),
		CGSTPercentage: mongodb.Decimal128(m.CGSTPercentage),
		CGSTValue:      mongodb.Decimal128(m.CGSTValue),
		SGSTPercentage: mongodb.Decimal128(m.SGSTPercentage),
		SGSTValue:      mongodb.Decimal128(m.SGSTValue),
		NewStock:       m.NewStock,
		OldStock:       m.OldStock,
		ReceivedDate:   nullDate(m.ReceivedDate),
		ExpiryDate:     nullDate(m.ExpiryDate),
		BatchNumber:    m.BatchNumber,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (d *medicineDoc) toMedicine() (*Medicine, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	m := &Medicine{
		ID:           id,
		MedicineName: d.MedicineName,
		CompanyName:  d.CompanyName,
		NewStock:     d.NewStock,
		OldStock:     d.OldStock,
		BatchNumber:  d.BatchNumber,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src bson.Decimal128
	}{
		{&m.Price, d.Price},
		{&m.CGSTPercentage, d.CGSTPercentage},
		{&m.CGSTValue, d.CGSTValue},
		{&m.SGSTPercentage, d.SGSTPercentage},
		{&m.SGSTValue, d.SGSTValue},
	} {
		if *f.dst, err = mongodb.Decimal(f.src); err != nil {
			return nil, err
		}
	}
	if d.ReceivedDate != nil {
		m.ReceivedDate = daterange.NewDate(*d.ReceivedDate)
	}
	if d.ExpiryDate != nil {
		m.ExpiryDate = daterange.NewDate(*d.ExpiryDate)
	}
	return m, nil
}

type repoMongo struct{ coll *mongo.Collection }

func NewRepoMongo(c *mongodb.Client) Repository {
	return &repoMongo{coll: c.Collection(medicinesCollection)}
}

var byName = bson.D{{Key: "medicine_name", Value: 1}}

func (r *repoMongo) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, mongodb.Classify("count medicines", err)
	}
	opts := options.Find().SetSort(byName).SetSkip(int64(offset)).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, mongodb.Classify("list medicines", err)
	}
	var docs []medicineDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, mongodb.Classify("decode medicines", err)
	}
	items := make([]*Medicine, 0, len(docs))
	for i := range docs {
		m, err := docs[i].toMedicine()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, int(total), nil
}

func (r *repoMongo) Scan(ctx context.Context, fn func(*Medicine) error) error {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(byName))
	if err != nil {
		return mongodb.Classify("scan medicines", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc medicineDoc
		if err := cur.Decode(&doc); err != nil {
			return mongodb.Classify("decode medicine", err)
		}
		m, err := doc.toMedicine()
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return mongodb.Classify("scan medicines", cur.Err())
}

func (r *repoMongo) GetByName(ctx context.Context, name string) (*Medicine, error) {
	var doc medicineDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "medicine_name", Value: name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("medicine")
	}
	if err != nil {
		return nil, mongodb.Classify("get medicine", err)
	}
	return doc.toMedicine()
}

func (r *repoMongo) Create(ctx context.Context, m *Medicine) error {
	_, err := r.coll.InsertOne(ctx, toMedicineDoc(m))
	return mongodb.Classify("insert medicine", err)
}

func (r *repoMongo) Upsert(ctx context.Context, m *Medicine) error {
	doc := toMedicineDoc(m)
	set := bson.D{
		{Key: "company_name", Value: doc.CompanyName},
		{Key: "price", Value: doc.Price},
		{Key: "CGST_percentage", Value: doc.CGSTPercentage},
		{Key: "CGST_value", Value: doc.CGSTValue},
		{Key: "SGST_percentage", Value: doc.SGSTPercentage},
		{Key: "SGST_value", Value: doc.SGSTValue},
		{Key: "new_stock", Value: doc.NewStock},
		{Key: "old_stock", Value: doc.OldStock},
		{Key: "received_date", Value: doc.ReceivedDate},
		{Key: "expiry_date", Value: doc.ExpiryDate},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "medicine_name", Value: doc.MedicineName}, {Key: "batch_number", Value: doc.BatchNumber}},
		bson.D{
			{Key: "$set", Value: set},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: doc.ID}, {Key: "created_at", Value: doc.CreatedAt}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return mongodb.Classify("upsert medicine", err)
}

func (r *repoMongo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "medicine_name", Value: name}})
	if err != nil {
		return mongodb.Classify("delete medicine", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("medicine")
	}
	return nil
}

func (r *repoMongo) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return mongodb.Classify("delete medicines", err)
}

func (r *repoMongo) CompareAndSetStock(ctx context.Context, name string, expected, next int) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "medicine_name", Value: name}, {Key: "old_stock", Value: expected}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "old_stock", Value: next},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return false, mongodb.Classify("update medicine stock", err)
	}
	return res.MatchedCount == 1, nil
}

// EnsureIndexes creates the unique name index the stock ledger relies on.
func EnsureIndexes(ctx context.Context, c *mongodb.Client) error {
	_, err := c.Collection(medicinesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: byName, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "medicine_name", Value: 1}, {Key: "batch_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiry_date", Value: 1}}},
	})
	return mongodb.Classify("create medicines indexes", err)
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/mongodb"
	"github.com/SMRFT/Cosmetalogy-final/pkg/daterange"
)

const (
	recordsCollection        = "billing_records"
	procedureBillsCollection = "procedure_bills"
	countersCollection       = "bill_counters"
)

type lineItemDoc struct {
	Item  string          `bson:"item"`
	Qty   int             `bson:"qty"`
	Price bson.Decimal128 `bson:"price"`
	Total bson.Decimal128 `bson:"total"`
}

func toLineItemDocs(items []LineItem) []lineItemDoc {
	docs := make([]lineItemDoc, len(items))
	for i, li := range items {
		docs[i] = lineItemDoc{Item: li.Item, Qty: li.Qty, Price: mongodb.Decimal128(li.Price), Total: mongodb.Decimal128(li.Total)}
	}
	return docs
}

func fromLineItemDocs(docs []lineItemDoc) ([]LineItem, error) {
	items := make([]LineItem, len(docs))
	for i, d := range docs {
		price, err := mongodb.Decimal(d.Price)
		if err != nil {
			return nil, err
		}
		total, err := mongodb.Decimal(d.Total)
		if err != nil {
			return nil, err
		}
		items[i] = LineItem{Item: d.Item, Qty: d.Qty, Price: price, Total: total}
	}
	return items, nil
}

// ---- Counters ----

type counterDoc struct {
	ID      string    `bson:"_id"`
	Prefix  string    `bson:"prefix"`
	Year    int       `bson:"year"`
	LastSeq int       `bson:"last_seq"`
	Updated time.Time `bson:"updated_at"`
}

type counterRepoMongo struct{ coll *mongo.Collection }

func NewCounterRepoMongo(c *mongodb.Client) CounterRepository {
	return &counterRepoMongo{coll: c.Collection(countersCollection)}
}

func counterID(prefix string, year int) string { return fmt.Sprintf("%s/%d", prefix, year) }

func (r *counterRepoMongo) Increment(ctx context.Context, prefix string, year int) (int, bool, error) {
	var doc counterDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: counterID(prefix, year)}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "last_seq", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mongodb.Classify("increment bill counter", err)
	}
	return doc.LastSeq, true, nil
}

func (r *counterRepoMongo) Init(ctx context.Context, prefix string, year int, seed int) (int, error) {
	doc := counterDoc{ID: counterID(prefix, year), Prefix: prefix, Year: year, LastSeq: seed + 1, Updated: time.Now().UTC()}
	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return doc.LastSeq, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return 0, mongodb.Classify("init bill counter", err)
	}
	// The duplicate key aborted the session transaction; let the caller retry it.
	if mongodb.InTransaction(ctx) {
		return 0, fmt.Errorf("init bill counter %s: %w", doc.ID, apperr.ErrConflict)
	}
	seq, ok, err := r.Increment(ctx, prefix, year)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("init bill counter %s: %w", doc.ID, apperr.ErrConflict)
	}
	return seq, nil
}

// ---- Billing records ----

type recordDoc struct {
	ID              string          `bson:"_id"`
	PatientUID      string          `bson:"patientUID"`
	PatientName     string          `bson:"patientName"`
	AppointmentDate time.Time       `bson:"appointmentDate"`
	LineItems       []lineItemDoc   `bson:"table_data"`
	NetAmount       bson.Decimal128 `bson:"netAmount"`
	Discount        bson.Decimal128 `bson:"discount"`
	PaymentType     string          `bson:"paymentType"`
	Section         string          `bson:"section"`
	BillNumber      string          `bson:"billNumber"`
	Prefix          string          `bson:"prefix,omitempty"`
	Year            int             `bson:"year,omitempty"`
	Seq             int             `bson:"seq,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt"`
}

func (d *recordDoc) toRecord() (*Record, error) {
	items, err := fromLineItemDocs(d.LineItems)
	if err != nil {
		return nil, err
	}
	net, err := mongodb.Decimal(d.NetAmount)
	if err != nil {
		return nil, err
	}
	discount, err := mongodb.Decimal(d.Discount)
	if err != nil {
		return nil, err
	}
	id, _ := uuid.Parse(d.ID)
	return &Record{
		ID:              id,
		PatientUID:      d.PatientUID,
		PatientName:     d.PatientName,
		AppointmentDate: daterange.NewDate(d.AppointmentDate),
		LineItems:       items,
		NetAmount:       net,
		Discount:        discount,
		PaymentType:     PaymentType(d.PaymentType),
		Section:         Section(d.Section),
		BillNumber:      d.BillNumber,
		Prefix:          d.Prefix,
		Year:            d.Year,
		Seq:             d.Seq,
		CreatedAt:       d.CreatedAt,
	}, nil
}

type recordRepoMongo struct{ coll *mongo.Collection }

func NewRecordRepoMongo(c *mongodb.Client) RecordRepository {
	return &recordRepoMongo{coll: c.Collection(recordsCollection)}
}

func (r *recordRepoMongo) Create(ctx context.Context, rec *Record) error {
	_, err := r.coll.InsertOne(ctx, recordDoc{
		ID:              rec.ID.String(),
		PatientUID:      rec.PatientUID,
		PatientName:     rec.PatientName,
		AppointmentDate: rec.AppointmentDate.Time,
		LineItems:       toLineItemDocs(rec.LineItems),
		NetAmount:       mongodb.Decimal128(rec.NetAmount),
		Discount:        mongodb.Decimal128(rec.Discount),
		PaymentType:     string(rec.PaymentType),
		Section:         string(rec.Section),
		BillNumber:      rec.BillNumber,
		Prefix:          rec.Prefix,
		Year:            rec.Year,
		Seq:             rec.Seq,
		CreatedAt:       rec.CreatedAt,
	})
	return mongodb.Classify("insert billing record", err)
}

// LastSequence reads the suffix of the newest bill in the scope, which also
// covers documents written before sequences were stored separately.
func (r *recordRepoMongo) LastSequence(ctx context.Context, pt PaymentType, prefix string, year int) (int, error) {
	filter := bson.D{
		{Key: "paymentType", Value: string(pt)},
		{Key: "billNumber", Value: bson.Regex{Pattern: "^" + regexp.QuoteMeta(fmt.Sprintf("%s/%d/", prefix, year))}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var doc recordDoc
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, mongodb.Classify("last bill sequence", err)
	}
	return ParseSequence(doc.BillNumber)
}

func (r *recordRepoMongo) UpdateLineItems(ctx context.Context, patientUID string, date daterange.Date, items []LineItem) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "patientUID", Value: patientUID}, {Key: "appointmentDate", Value: date.Time}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "table_data", Value: toLineItemDocs(items)}}}},
	)
	if err != nil {
		return mongodb.Classify("update billing line items", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("billing record")
	}
	return nil
}

func (r *recordRepoMongo) DeleteByPatient(ctx context.Context, patientUID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "patientUID", Value: patientUID}})
	if err != nil {
		return 0, mongodb.Classify("delete billing records", err)
	}
	return res.DeletedCount, nil
}

func dateRangeFilter(field string, start, end daterange.Date) bson.D {
	return bson.D{{Key: field, Value: bson.D{
		{Key: "$gte", Value: start.Time},
		{Key: "$lte", Value: end.Time},
	}}}
}

var insertionOrder = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

func (r *recordRepoMongo) ListByRange(ctx context.Context, start, end daterange.Date) ([]*Record, error) {
	cur, err := r.coll.Find(ctx, dateRangeFilter("appointmentDate", start, end), insertionOrder)
	if err != nil {
		return nil, mongodb.Classify("list billing records", err)
	}
	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Classify("decode billing records", err)
	}
	items := make([]*Record, 0, len(docs))
	for i := range docs {
		rec, err := docs[i].toRecord()
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

// ---- Procedure bills ----

type procedureBillDoc struct {
	ID                  string          `bson:"_id"`
	PatientUID          string          `bson:"patientUID"`
	PatientName         string          `bson:"patientName"`
	AppointmentDate     time.Time       `bson:"appointmentDate"`
	Procedures          []lineItemDoc   `bson:"procedures"`
	ProcedureNetAmount  bson.Decimal128 `bson:"procedureNetAmount"`
	Consumer            []lineItemDoc   `bson:"consumer"`
	ConsumerNetAmount   bson.Decimal128 `bson:"consumerNetAmount"`
	PaymentType         string          `bson:"PaymentType"`
	ConsumerBillNumber  string          `bson:"consumerBillNumber"`
	ProcedureBillNumber string          `bson:"procedureBillNumber"`
	CreatedAt           time.Time       `bson:"createdAt"`
}

type procedureBillRepoMongo struct{ coll *mongo.Collection }

func NewProcedureBillRepoMongo(c *mongodb.Client) ProcedureBillRepository {
	return &procedureBillRepoMongo{coll: c.Collection(procedureBillsCollection)}
}

func (r *procedureBillRepoMongo) Create(ctx context.Context, b *ProcedureBill) error {
	_, err := r.coll.InsertOne(ctx, procedureBillDoc{
		ID:                  b.ID.String(),
		PatientUID:          b.PatientUID,
		PatientName:         b.PatientName,
		AppointmentDate:     b.AppointmentDate.Time,
		Procedures:          toLineItemDocs(b.Procedures),
		ProcedureNetAmount:  mongodb.Decimal128(b.ProcedureNetAmount),
		Consumer:            toLineItemDocs(b.Consumer),
		ConsumerNetAmount:   mongodb.Decimal128(b.ConsumerNetAmount),
		PaymentType:         string(b.PaymentType),
		ConsumerBillNumber:  b.ConsumerBillNumber,
		ProcedureBillNumber: b.ProcedureBillNumber,
		CreatedAt:           b.CreatedAt,
	})
	return mongodb.Classify("insert procedure bill", err)
}

// LastSequence checks both bill number fields and returns the higher suffix.
func (r *procedureBillRepoMongo) LastSequence(ctx context.Context, _ PaymentType, prefix string, year int) (int, error) {
	pattern := bson.Regex{Pattern: "^" + regexp.QuoteMeta(fmt.Sprintf("%s/%d/", prefix, year))}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	last := 0
	for _, field := range []string{"consumerBillNumber", "procedureBillNumber"} {
		var doc procedureBillDoc
		err := r.coll.FindOne(ctx, bson.D{{Key: field, Value: pattern}}, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return 0, mongodb.Classify("last procedure bill sequence", err)
		}
		number := doc.ConsumerBillNumber
		if field == "procedureBillNumber" {
			number = doc.ProcedureBillNumber
		}
		seq, err := ParseSequence(number)
		if err != nil {
			return 0, err
		}
		if seq > last {
			last = seq
		}
	}
	return last, nil
}

func (r *procedureBillRepoMongo) ListByRange(ctx context.Context, start, end daterange.Date) ([]*ProcedureBill, error) {
	cur, err := r.coll.Find(ctx, dateRangeFilter("appointmentDate", start, end), insertionOrder)
	if err != nil {
		return nil, mongodb.Classify("list procedure bills", err)
	}
	var docs []procedureBillDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Classify("decode procedure bills", err)
	}
	items := make([]*ProcedureBill, 0, len(docs))
	for _, d := range docs {
		procedures, err := fromLineItemDocs(d.Procedures)
		if err != nil {
			return nil, err
		}
		consumer, err := fromLineItemDocs(d.Consumer)
		if err != nil {
			return nil, err
		}
		procNet, err := mongodb.Decimal(d.ProcedureNetAmount)
		if err != nil {
			return nil, err
		}
		consNet, err := mongodb.Decimal(d.ConsumerNetAmount)
		if err != nil {
			return nil, err
		}
		id, _ := uuid.Parse(d.ID)
		items = append(items, &ProcedureBill{
			ID:                  id,
			PatientUID:          d.PatientUID,
			PatientName:         d.PatientName,
			AppointmentDate:     daterange.NewDate(d.AppointmentDate),
			Procedures:          procedures,
			ProcedureNetAmount:  procNet,
			Consumer:            consumer,
			ConsumerNetAmount:   consNet,
			PaymentType:         PaymentType(d.PaymentType),
			ConsumerBillNumber:  d.ConsumerBillNumber,
			ProcedureBillNumber: d.ProcedureBillNumber,
			CreatedAt:           d.CreatedAt,
		})
	}
	return items, nil
}

// EnsureIndexes creates the unique bill number indexes and the date indexes
// used by interval queries.
func EnsureIndexes(ctx context.Context, c *mongodb.Client) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		recordsCollection: {
			{Keys: bson.D{{Key: "billNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "appointmentDate", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "patientUID", Value: 1}, {Key: "appointmentDate", Value: 1}}},
		},
		procedureBillsCollection: {
			{Keys: bson.D{{Key: "consumerBillNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "procedureBillNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "appointmentDate", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := c.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return mongodb.Classify("create "+coll+" indexes", err)
		}
	}
	return nil
}

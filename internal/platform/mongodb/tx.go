package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TxRunner runs a unit of work against MongoDB. With transactions enabled the
// work runs inside a session transaction, which requires a replica set.
// Otherwise it runs directly and a failure part way through is not rolled back.
type TxRunner struct {
	client       *Client
	transactions bool
}

func NewTxRunner(c *Client, transactions bool) *TxRunner {
	return &TxRunner{client: c, transactions: transactions}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.client == nil || !r.transactions {
		return fn(ctx)
	}
	sess, err := r.client.client.StartSession()
	if err != nil {
		return Classify("start session", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return Classify("transaction", err)
}

// InTransaction reports whether ctx carries a session, as it does inside
// WithinTx with transactions enabled. A failed write there aborts the whole
// transaction, so callers must not fall back to another write on the same ctx.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

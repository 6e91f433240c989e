// Package mongodb wraps the MongoDB driver connection used by the document
// ledger store and the GridFS blob store.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

// Client owns a driver client and the clinic database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: connection uri is required")
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	c := &Client{client: client, db: client.Database(database)}
	if err := c.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// Database returns the clinic database.
func (c *Client) Database() *mongo.Database { return c.db }

// Collection is shorthand for Database().Collection(name).
func (c *Client) Collection(name string) *mongo.Collection { return c.db.Collection(name) }

func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return apperr.Unavailable("mongo ping", err)
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Classify translates driver errors into the apperr taxonomy.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrStorageUnavailable):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return apperr.Unavailable(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

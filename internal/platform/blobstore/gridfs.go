package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket. Names may repeat; reads
// return the newest revision.
type GridFSStore struct {
	bucket *mongo.GridFSBucket
}

func NewGridFSStore(db *mongo.Database) *GridFSStore {
	return &GridFSStore{bucket: db.GridFSBucket()}
}

func (s *GridFSStore) Put(ctx context.Context, name, contentType string, content io.Reader) (*Metadata, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFileName
	}
	counter := &countingReader{r: io.LimitReader(content, MaxFileSize+1)}
	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})

	id, err := s.bucket.UploadFromStream(ctx, name, counter, opts)
	if err != nil {
		return nil, fmt.Errorf("gridfs upload %s: %w", name, err)
	}
	if counter.n > MaxFileSize {
		_ = s.bucket.Delete(ctx, id)
		return nil, ErrFileTooLarge
	}
	return &Metadata{
		ID:          id.Hex(),
		FileName:    name,
		ContentType: contentType,
		Size:        counter.n,
	}, nil
}

func (s *GridFSStore) GetByName(ctx context.Context, name string) (io.ReadCloser, *Metadata, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(ctx, name)
	if err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("gridfs open %s: %w", name, err)
	}

	file := stream.GetFile()
	meta := &Metadata{
		FileName:    file.Name,
		Size:        file.Length,
		CreatedAt:   file.UploadDate,
		ContentType: "application/octet-stream",
	}
	if oid, ok := file.ID.(bson.ObjectID); ok {
		meta.ID = oid.Hex()
	}
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok && ct != "" {
			meta.ContentType = ct
		}
	}
	return stream, meta, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Package blobstore stores patient images and documents by file name. It
// provides an in-memory store for development and tests and a GridFS store
// for MongoDB deployments, plus the echo handlers for upload and download.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
)

// MaxFileSize is the largest accepted blob (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// Metadata describes a stored blob.
type Metadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store puts blobs under a name and fetches the latest blob with that name.
type Store interface {
	Put(ctx context.Context, name, contentType string, content io.Reader) (*Metadata, error)
	GetByName(ctx context.Context, name string) (io.ReadCloser, *Metadata, error)
}

type storedBlob struct {
	meta    Metadata
	content []byte
}

// MemoryStore is a concurrency-safe in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*storedBlob)}
}

// Put reads content fully, hashes it and replaces any blob with the same name.
func (s *MemoryStore) Put(_ context.Context, name, contentType string, content io.Reader) (*Metadata, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFileName
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	meta := Metadata{
		ID:          uuid.New().String(),
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", sha256.Sum256(data)),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.byName[name] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) GetByName(_ context.Context, name string) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.meta
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

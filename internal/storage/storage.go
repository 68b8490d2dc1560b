// Package storage persists rendered invoice documents. Keys are flat,
// slash-separated names relative to the storage root.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/dukerupert/taxsim/internal"
)

// Storage defines the interface for invoice artifact storage.
type Storage interface {
	// Put stores content under key, replacing any existing object.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Get retrieves an object. The caller must close the reader.
	// Returns ErrFileNotFound when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage creates a Storage implementation based on configuration.
func NewStorage(ctx context.Context, cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	case "r2":
		return NewR2Storage(ctx, R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
		})
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Region:   cfg.S3Region,
			Bucket:   cfg.S3Bucket,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}

// ValidateKey rejects keys that could resolve outside the storage root:
// empty names, absolute paths, parent references, backslashes and anything
// that changes under path cleaning.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "\\\x00") {
		return ErrInvalidKey(key)
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return ErrInvalidKey(key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return ErrInvalidKey(key)
		}
	}
	return nil
}

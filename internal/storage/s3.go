package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures AWS S3 or an S3-compatible endpoint. Credentials come
// from the default AWS chain (env, shared config, instance role).
type S3Config struct {
	Region   string
	Bucket   string
	Endpoint string
}

// objectStore implements Storage over any S3 API. R2Storage and S3Storage
// differ only in how the client is built.
type objectStore struct {
	client *s3.Client
	bucket string
	name   string // provider name for error messages
}

// S3Storage implements Storage using AWS S3.
type S3Storage struct {
	objectStore
}

// NewS3Storage creates an S3-backed store.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{objectStore{client: client, bucket: cfg.Bucket, name: "S3"}}, nil
}

// Put uploads an object.
func (s *objectStore) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return ioError("upload to "+s.name, key, err)
	}
	return nil
}

// Get downloads an object.
func (s *objectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrFileNotFound(key)
		}
		return nil, ioError("get from "+s.name, key, err)
	}
	return result.Body, nil
}

// Delete removes an object.
func (s *objectStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFoundError(err) {
		return ioError("delete from "+s.name, key, err)
	}
	return nil
}

// Exists issues a HEAD request for the object.
func (s *objectStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, ioError("check existence in "+s.name, key, err)
	}
	return true, nil
}

// isNotFoundError checks if an error indicates the object doesn't exist.
// GetObject reports NoSuchKey; HeadObject has no body and reports NotFound.
func isNotFoundError(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

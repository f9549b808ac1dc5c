package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	miniogo "github.com/minio/minio-go/v7"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
	"github.com/feichai0017/invoice-extractor/pkg/storage/minio"
	"github.com/feichai0017/invoice-extractor/pkg/storage/s3"
)

// StorageType selects the object store backend
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// ErrNotFound means the requested object does not exist
var ErrNotFound = errors.New("object not found")

// IsNotFound reports whether err means the object is absent. It
// understands the provider-specific missing-key errors of both backends
// as well as the plain sentinel used by the in-memory store.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var noSuchKey *awstypes.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *awstypes.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	// S3 copy and head calls report a missing source through a generic
	// API error instead of the typed NoSuchKey
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var minioErr miniogo.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code == "NoSuchKey" || minioErr.Code == "NoSuchBucket"
	}
	return false
}

// ObjectStore is the minimal contract the pipeline needs from a bucket.
// None of the operations are atomic with respect to each other; List is
// eventually consistent and may omit very recently written objects.
type ObjectStore interface {
	// List returns the keys of all objects under the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
	// Get fetches an object's content; not-found if absent
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Put writes an object, overwriting any previous content
	Put(ctx context.Context, key string, reader io.Reader) error
	// Copy duplicates srcKey to dstKey; not-found if the source is absent
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes an object; not-found if already absent, which
	// callers are expected to tolerate
	Delete(ctx context.Context, key string) error
}

// NewStorage creates the configured object store backend
func NewStorage(storageType StorageType, cfg *config.Config, log logger.Logger) (ObjectStore, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.NewS3Store(cfg, log)
	case StorageTypeMinio:
		return minio.NewMinioStore(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

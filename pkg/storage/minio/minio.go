package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

type MinioStore struct {
	client     *minio.Client
	bucketName string
	logger     logger.Logger
}

// List returns all object keys under prefix
func (m *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var keys []string
	for obj := range objectCh {
		if obj.Err != nil {
			m.logger.Error("Failed to list objects in MinIO",
				logger.String("bucket", m.bucketName),
				logger.String("prefix", prefix),
				logger.Error(obj.Err),
			)
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

// Get fetches an object's content
func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		m.logger.Error("Failed to get object from MinIO",
			logger.String("bucket", m.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; surface a missing key now instead of at the
	// caller's first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return obj, nil
}

// Put writes an object, overwriting any previous content
func (m *MinioStore) Put(ctx context.Context, key string, reader io.Reader) error {
	_, err := m.client.PutObject(ctx, m.bucketName, key, reader, -1, minio.PutObjectOptions{})
	if err != nil {
		m.logger.Error("Failed to put object to MinIO",
			logger.String("bucket", m.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

// Copy duplicates srcKey to dstKey within the bucket
func (m *MinioStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucketName, Object: dstKey},
		minio.CopySrcOptions{Bucket: m.bucketName, Object: srcKey},
	)
	if err != nil {
		m.logger.Error("Failed to copy object in MinIO",
			logger.String("bucket", m.bucketName),
			logger.String("srcKey", srcKey),
			logger.String("dstKey", dstKey),
			logger.Error(err),
		)
		return fmt.Errorf("failed to copy object: %w", err)
	}

	return nil
}

// Delete removes an object
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		m.logger.Error("Failed to delete object from MinIO",
			logger.String("bucket", m.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

func NewMinioStore(cfg *config.Config, log logger.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{
		client:     client,
		bucketName: cfg.Bucket,
		logger:     log,
	}, nil
}

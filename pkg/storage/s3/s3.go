package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

type S3Store struct {
	client     *s3.Client
	bucketName string
	region     string
	logger     logger.Logger
}

// List returns all object keys under prefix
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to list objects in S3",
				logger.String("bucket", s.bucketName),
				logger.String("prefix", prefix),
				logger.Error(err),
			)
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}

	return keys, nil
}

// Get fetches an object's content
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		s.logger.Error("Failed to get object from S3",
			logger.String("bucket", s.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return result.Body, nil
}

// Put writes an object, overwriting any previous content
func (s *S3Store) Put(ctx context.Context, key string, reader io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   reader,
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		s.logger.Error("Failed to put object to S3",
			logger.String("bucket", s.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

// Copy duplicates srcKey to dstKey within the bucket
func (s *S3Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	input := &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		CopySource: aws.String(s.bucketName + "/" + srcKey),
		Key:        aws.String(dstKey),
	}

	_, err := s.client.CopyObject(ctx, input)
	if err != nil {
		s.logger.Error("Failed to copy object in S3",
			logger.String("bucket", s.bucketName),
			logger.String("srcKey", srcKey),
			logger.String("dstKey", dstKey),
			logger.Error(err),
		)
		return fmt.Errorf("failed to copy object: %w", err)
	}

	return nil
}

// Delete removes an object
func (s *S3Store) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	_, err := s.client.DeleteObject(ctx, input)
	if err != nil {
		s.logger.Error("Failed to delete object from S3",
			logger.String("bucket", s.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

func NewS3Store(cfg *config.Config, log logger.Logger) (*S3Store, error) {
	log.Info("S3 configuration",
		logger.String("bucket", cfg.Bucket),
		logger.String("region", cfg.Region),
		logger.String("endpoint", cfg.Endpoint),
	)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: cfg.Bucket,
		region:     cfg.Region,
		logger:     log,
	}, nil
}

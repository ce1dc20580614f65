package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store implements Store over a single S3 bucket.
//
// The client is injected via the s3iface interface so tests can supply a
// double without network access.
type S3Store struct {
	client s3iface.S3API
	bucket string
}

// NewS3Store creates a Store backed by the given S3 client and bucket.
func NewS3Store(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// DialS3 builds an S3 client for the given region. A non-empty endpoint
// overrides the default AWS endpoint (MinIO, localstack).
func DialS3(region, endpoint string) (s3iface.S3API, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return s3.New(sess), nil
}

// Get returns a reader for the object at key.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

// Put writes body to key.
func (s *S3Store) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("writing s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// List returns up to max keys under prefix.
func (s *S3Store) List(ctx context.Context, prefix string, max int) ([]string, error) {
	out, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(int64(max)),
	})
	if err != nil {
		return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, prefix, err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.StringValue(obj.Key))
	}
	return keys, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectStore wraps the S3 client for the private reports bucket. Any
// S3-compatible backend works — STORAGE_ENDPOINT points it at MinIO or
// Supabase storage in development.
type objectStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// newObjectStore builds the S3 client from the default AWS config chain
// (env vars, shared config, instance role), with an optional endpoint
// override for S3-compatible backends.
func newObjectStore(ctx context.Context, cfg appConfig) (*objectStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := awsCfg.BaseEndpoint
	if cfg.StorageEndpoint != "" {
		endpoint = aws.String(cfg.StorageEndpoint)
	}

	client := s3.New(s3.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: endpoint,
		UsePathStyle: true,
	})

	return &objectStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.StorageBucket,
	}, nil
}

// upload stores an object privately under key.
func (s *objectStore) upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	return err
}

// download fetches at most maxBytes of an object's content.
func (s *objectStore) download(ctx context.Context, key string, maxBytes int64) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// signedURL returns a presigned GET link valid for ttl. The bucket stays
// private; these links are the only way clients read report files.
func (s *objectStore) signedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// remove deletes an object. Deleting a missing key is not an error.
func (s *objectStore) remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

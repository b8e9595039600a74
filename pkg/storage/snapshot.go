package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// SnapshotArchive stores read-only checkout snapshots of carts. What happens
// to a snapshot afterwards (order placement, analytics) is someone else's job.
type SnapshotArchive interface {
	// PutSnapshot writes the JSON payload and returns a reference to it.
	PutSnapshot(ctx context.Context, sessionID string, payload []byte) (string, error)
}

// R2Archive writes snapshots to an S3-compatible bucket (Cloudflare R2).
type R2Archive struct {
	client        *s3.Client
	bucketName    string
	publicURL     string
	uploadTimeout time.Duration
}

func NewR2Archive(ctx context.Context, accountID, accessKey, secretKey, bucketName, publicURL string, uploadTimeout time.Duration) (*R2Archive, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &R2Archive{
		client:        client,
		bucketName:    bucketName,
		publicURL:     strings.TrimSuffix(publicURL, "/"),
		uploadTimeout: uploadTimeout,
	}, nil
}

func (a *R2Archive) PutSnapshot(ctx context.Context, sessionID string, payload []byte) (string, error) {
	key := fmt.Sprintf("carts/%s/%s.json", sessionID, uuid.New().String())

	uploadCtx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()

	_, err := a.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive snapshot: %w", err)
	}

	return fmt.Sprintf("%s/%s", a.publicURL, key), nil
}

// NoopArchive is used when no object storage is configured. Snapshots are
// still returned to the caller, they just are not archived anywhere.
type NoopArchive struct{}

func (NoopArchive) PutSnapshot(context.Context, string, []byte) (string, error) {
	return "", nil
}

// Package minio publishes validated results to S3-compatible object storage.
package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// defaultRegion avoids a bucket-location lookup on every upload.
const defaultRegion = "us-east-1"

// indexSuffix is the CSI index written next to every merged result.
const indexSuffix = ".csi"

// Ensure Publisher implements the interface.
var _ driven.ArtifactPublisher = (*Publisher)(nil)

// Publisher uploads a result and its index to one bucket.
type Publisher struct {
	client *minio.Client
	bucket string
}

// NewPublisher creates a publisher from publish settings.
func NewPublisher(settings domain.PublishSettings) (*Publisher, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: publish endpoint and bucket are required", domain.ErrInvalidInput)
	}

	endpoint, secure, err := parseEndpoint(settings.Endpoint, settings.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: secure,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	return &Publisher{client: client, bucket: settings.Bucket}, nil
}

// Publish uploads localPath under key, followed by its CSI index when one
// exists. It returns the s3:// URI of the result.
func (p *Publisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: object key is required", domain.ErrInvalidInput)
	}

	if err := p.upload(ctx, localPath, key, "application/gzip"); err != nil {
		return "", err
	}
	if _, err := os.Stat(localPath + indexSuffix); err == nil {
		if err := p.upload(ctx, localPath+indexSuffix, key+indexSuffix, "application/octet-stream"); err != nil {
			return "", err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat index: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

func (p *Publisher) upload(ctx context.Context, localPath, key, contentType string) error {
	info, err := p.client.FPutObject(ctx, p.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s/%s: %w", localPath, p.bucket, key, err)
	}
	logger.Debug("Uploaded %s (%d bytes, etag %s)", key, info.Size, info.ETag)
	return nil
}

// parseEndpoint accepts host:port or a URL; an https scheme forces TLS.
// Only strings with a scheme are parsed as URLs, since a bare IP:port is
// not a valid URL.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		if raw == "" || strings.ContainsAny(raw, "/?#") {
			return "", false, fmt.Errorf("%w: invalid publish endpoint %q", domain.ErrInvalidInput, raw)
		}
		return raw, useSSL, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("%w: invalid publish endpoint: %w", domain.ErrInvalidInput, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("%w: publish endpoint %q has no host", domain.ErrInvalidInput, raw)
	}
	return u.Host, useSSL || u.Scheme == "https", nil
}

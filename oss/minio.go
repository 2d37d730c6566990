package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	EndpointURL() *url.URL
}

// MinioAdapter uploads to a MinIO server.
type MinioAdapter struct {
	client minioAPI
	bucket string
}

func NewMinioAdapter(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool) (*MinioAdapter, error) {
	// minio.New wants host[:port] without a scheme
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		useSSL = useSSL || u.Scheme == "https"
		endpoint = u.Host
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioAdapter{client: client, bucket: bucket}, nil
}

// Upload puts the object and returns <endpoint>/<bucket>/<key>.
func (a *MinioAdapter) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return strings.TrimSuffix(a.client.EndpointURL().String(), "/") + "/" + a.bucket + "/" + escapeKey(key), nil
}

type minioDriver struct{}

func (d *minioDriver) Name() string { return "minio" }

func (d *minioDriver) Connect(_ context.Context, cfg *Config) (Uploader, error) {
	return NewMinioAdapter(cfg.Endpoint, cfg.ID, cfg.Secret, cfg.Bucket, cfg.UseSSL)
}

func init() {
	RegisterDriver(&minioDriver{})
}

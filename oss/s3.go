package oss

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of the S3 client used for uploads.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Adapter uploads to AWS S3 or an S3-compatible endpoint.
type S3Adapter struct {
	client   s3API
	bucket   string
	region   string
	endpoint string
}

// NewS3Adapter creates an adapter. Static credentials are used when accessKeyID
// is set, otherwise the default AWS credential chain.
func NewS3Adapter(ctx context.Context, accessKeyID, secretAccessKey, region, bucket, endpoint string) (*S3Adapter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Adapter(client, region, bucket, endpoint), nil
}

func newS3Adapter(client s3API, region, bucket, endpoint string) *S3Adapter {
	return &S3Adapter{client: client, bucket: bucket, region: region, endpoint: endpoint}
}

// Upload puts the object and returns its virtual-hosted URL.
func (a *S3Adapter) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return a.URL(key), nil
}

// URL returns https://<bucket>.<endpoint-host>/<key>.
func (a *S3Adapter) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", a.bucket, a.host(), escapeKey(key))
}

func (a *S3Adapter) host() string {
	if a.endpoint == "" {
		return fmt.Sprintf("s3.%s.amazonaws.com", a.region)
	}
	if u, err := url.Parse(a.endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimSuffix(a.endpoint, "/")
}

type s3Driver struct{}

func (d *s3Driver) Name() string { return "s3" }

func (d *s3Driver) Connect(ctx context.Context, cfg *Config) (Uploader, error) {
	return NewS3Adapter(ctx, cfg.ID, cfg.Secret, cfg.Region, cfg.Bucket, cfg.Endpoint)
}

func init() {
	RegisterDriver(&s3Driver{})
}

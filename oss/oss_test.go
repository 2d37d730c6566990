package oss

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

type fakeAzure struct {
	container, blob string
	size            int
}

func (f *fakeAzure) UploadBuffer(_ context.Context, container, blob string, buf []byte, _ *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.blob, f.size = container, blob, len(buf)
	return azblob.UploadBufferResponse{}, nil
}

func (f *fakeAzure) URL() string { return "https://acct.blob.core.windows.net/" }

type fakeMinio struct {
	bucket, object string
	size           int64
}

func (f *fakeMinio) PutObject(_ context.Context, bucket, object string, _ io.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.object, f.size = bucket, object, size
	return minio.UploadInfo{}, nil
}

func (f *fakeMinio) EndpointURL() *url.URL {
	return &url.URL{Scheme: "http", Host: "localhost:9000"}
}

func TestS3AdapterURL(t *testing.T) {
	fake := &fakeS3{}
	a := newS3Adapter(fake, "eu-west-1", "exports", "")

	got, err := a.Upload(context.Background(), "db/DB_20230101_123456_export.zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, "https://exports.s3.eu-west-1.amazonaws.com/db/DB_20230101_123456_export.zip", got)
	assert.Equal(t, "exports", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "application/zip", aws.ToString(fake.in.ContentType))
	assert.EqualValues(t, 3, aws.ToInt64(fake.in.ContentLength))
}

func TestS3AdapterCustomEndpoint(t *testing.T) {
	a := newS3Adapter(&fakeS3{}, "us-east-1", "b", "https://storage.example.com")
	assert.Equal(t, "https://b.storage.example.com/a%20b.zip", a.URL("a b.zip"))
}

func TestS3AdapterError(t *testing.T) {
	boom := errors.New("denied")
	a := newS3Adapter(&fakeS3{err: boom}, "us-east-1", "b", "")
	_, err := a.Upload(context.Background(), "x.zip", nil)
	assert.ErrorIs(t, err, boom)
}

func TestAzureAdapter(t *testing.T) {
	fake := &fakeAzure{}
	a := &AzureAdapter{client: fake, containerName: "exports"}

	got, err := a.Upload(context.Background(), "x.zip", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net/exports/x.zip", got)
	assert.Equal(t, "exports", fake.container)
	assert.Equal(t, 3, fake.size)
}

func TestMinioAdapter(t *testing.T) {
	fake := &fakeMinio{}
	a := &MinioAdapter{client: fake, bucket: "exports"}

	got, err := a.Upload(context.Background(), "x.zip", []byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/exports/x.zip", got)
	assert.EqualValues(t, 4, fake.size)
}

func TestStorageFileSystem(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage(&Config{Provider: "filesystem", Bucket: dir, Prefix: "exports"})

	got, err := s.Upload(context.Background(), "a.zip", []byte("zip"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "exports", "a.zip"))
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
}

func TestStorageUnsupportedProviderAtCallTime(t *testing.T) {
	cfg := &Config{Provider: "dropbox"}
	s := NewStorage(cfg)

	_, err := s.Upload(context.Background(), "a.zip", nil)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Equal(t, `Unsupported storage provider: "dropbox"`, err.Error())

	// configuration is read on every call
	cfg.Provider = "local"
	cfg.Bucket = t.TempDir()
	_, err = s.Upload(context.Background(), "a.zip", nil)
	assert.NoError(t, err)
}

func TestStorageEmptyProvider(t *testing.T) {
	_, err := NewStorage(&Config{}).Upload(context.Background(), "a.zip", nil)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewStorage(nil).Upload(context.Background(), "a.zip", nil)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestFileSystemRejectsEscape(t *testing.T) {
	fs, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)
	_, err = fs.Upload(context.Background(), "../outside.zip", nil)
	assert.Error(t, err)
}

func TestAliases(t *testing.T) {
	for _, p := range []string{"aws", "s3", "AWS", "vercel", "blob", "azure", "minio", "local", "filesystem"} {
		_, err := GetDriver(p)
		assert.NoError(t, err, p)
	}
	assert.Equal(t, []string{"azure", "filesystem", "minio", "s3"}, Drivers())
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "a.zip", Config{}.Key("a.zip"))
	assert.Equal(t, "exports/a.zip", Config{Prefix: "/exports/"}.Key("a.zip"))
}

func TestValidateMinioRequiresEndpoint(t *testing.T) {
	c := &Config{Provider: "minio", ID: "a", Secret: "b", Bucket: "c"}
	assert.Error(t, c.Validate())
}

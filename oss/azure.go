package oss

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// azureAPI is the part of the azblob client used for uploads.
type azureAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	URL() string
}

// AzureAdapter uploads to Azure Blob Storage.
type AzureAdapter struct {
	client        azureAPI
	containerName string
}

// NewAzureAdapter creates a new Azure Blob Storage adapter.
// An empty endpoint selects the public cloud service URL of the account.
func NewAzureAdapter(accountName, accountKey, containerName, endpoint string) (*AzureAdapter, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	serviceURL := endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureAdapter{client: client, containerName: containerName}, nil
}

// Upload writes the blob and returns its URL under the client's service URL.
func (a *AzureAdapter) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	ct := contentType(key)
	_, err := a.client.UploadBuffer(ctx, a.containerName, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return strings.TrimSuffix(a.client.URL(), "/") + "/" + a.containerName + "/" + escapeKey(key), nil
}

type azureDriver struct{}

func (d *azureDriver) Name() string { return "azure" }

func (d *azureDriver) Connect(_ context.Context, cfg *Config) (Uploader, error) {
	return NewAzureAdapter(cfg.ID, cfg.Secret, cfg.Bucket, cfg.Endpoint)
}

func init() {
	RegisterDriver(&azureDriver{})
}

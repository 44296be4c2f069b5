package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobService reads and writes spreadsheet and config blobs.
type BlobService struct {
	client *azblob.Client
}

// NewBlobService builds a client from BLOB_SERVICE_URL. Local http
// endpoints use the Azurite shared key; everything else uses managed
// identity.
func NewBlobService() (*BlobService, error) {
	serviceURL := os.Getenv("BLOB_SERVICE_URL")
	if serviceURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}

	var client *azblob.Client
	if isLocalEndpoint(serviceURL) {
		name, key := azuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newTokenCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	slog.Info("blob service initialized", "service_url", serviceURL)
	return &BlobService{client: client}, nil
}

// DownloadText returns the UTF-8 content of a blob. A missing container or
// blob is a storage error that aborts the run.
func (s *BlobService) DownloadText(ctx context.Context, container, blobName string) (string, error) {
	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return "", fmt.Errorf("failed to download blob %s/%s: %w", container, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s/%s: %w", container, blobName, err)
	}

	slog.Info("downloaded blob", "container", container, "blob_name", blobName, "size_bytes", len(data))
	return string(data), nil
}

// UploadText stores a string as a blob, creating the container if needed.
func (s *BlobService) UploadText(ctx context.Context, container, blobName, text string) error {
	_, err := s.client.CreateContainer(ctx, container, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		slog.Warn("failed to create container", "container", container, "error", err)
	}

	if _, err := s.client.UploadBuffer(ctx, container, blobName, []byte(text), nil); err != nil {
		return fmt.Errorf("failed to upload blob %s/%s: %w", container, blobName, err)
	}

	slog.Info("uploaded blob", "container", container, "blob_name", blobName, "size_bytes", len(text))
	return nil
}

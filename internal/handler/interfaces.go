package handler

import (
	"context"

	"github.com/rpetrillo/spendsplit/internal/models"
	"github.com/rpetrillo/spendsplit/internal/report"
)

// BlobClient reads and writes text blobs.
type BlobClient interface {
	DownloadText(ctx context.Context, container, blobName string) (string, error)
	UploadText(ctx context.Context, container, blobName, text string) error
}

// QueueClient enqueues messages for the Functions host.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// ArchiveClient stores and retrieves archived transactions.
type ArchiveClient interface {
	SaveTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, month string) ([]models.Transaction, error)
}

// EmailClient delivers rendered summary emails.
type EmailClient interface {
	Send(ctx context.Context, email report.Email) error
}

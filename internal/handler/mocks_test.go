package handler

import (
	"context"

	"github.com/rpetrillo/spendsplit/internal/models"
	"github.com/rpetrillo/spendsplit/internal/report"
)

// MockBlobClient is a func-field mock of BlobClient.
type MockBlobClient struct {
	DownloadTextFunc func(ctx context.Context, container, blobName string) (string, error)
	UploadTextFunc   func(ctx context.Context, container, blobName, text string) error
}

func (m *MockBlobClient) DownloadText(ctx context.Context, container, blobName string) (string, error) {
	if m.DownloadTextFunc != nil {
		return m.DownloadTextFunc(ctx, container, blobName)
	}
	return "", nil
}

func (m *MockBlobClient) UploadText(ctx context.Context, container, blobName, text string) error {
	if m.UploadTextFunc != nil {
		return m.UploadTextFunc(ctx, container, blobName, text)
	}
	return nil
}

// MockQueueClient is a func-field mock of QueueClient.
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockArchiveClient is a func-field mock of ArchiveClient.
type MockArchiveClient struct {
	SaveTransactionsFunc func(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error)
	ListTransactionsFunc func(ctx context.Context, month string) ([]models.Transaction, error)
}

func (m *MockArchiveClient) SaveTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error) {
	if m.SaveTransactionsFunc != nil {
		return m.SaveTransactionsFunc(ctx, transactions)
	}
	return transactions, nil
}

func (m *MockArchiveClient) ListTransactions(ctx context.Context, month string) ([]models.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, month)
	}
	return nil, nil
}

// MockEmailClient is a func-field mock of EmailClient.
type MockEmailClient struct {
	SendFunc func(ctx context.Context, email report.Email) error
}

func (m *MockEmailClient) Send(ctx context.Context, email report.Email) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email)
	}
	return nil
}

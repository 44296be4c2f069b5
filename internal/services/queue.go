package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// QueueService hands uploaded-sheet events to the queue-triggered report
// function.
type QueueService struct {
	serviceClient *azqueue.ServiceClient
}

// NewQueueService builds a client from QUEUE_SERVICE_URL.
func NewQueueService() (*QueueService, error) {
	serviceURL := os.Getenv("QUEUE_SERVICE_URL")
	if serviceURL == "" {
		return nil, fmt.Errorf("QUEUE_SERVICE_URL environment variable is required")
	}

	var client *azqueue.ServiceClient
	if isLocalEndpoint(serviceURL) {
		name, key := azuriteCredentials()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue client with shared key: %w", err)
		}
	} else {
		cred, err := newTokenCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue client: %w", err)
		}
	}

	slog.Info("queue service initialized", "service_url", serviceURL)
	return &QueueService{serviceClient: client}, nil
}

// EnqueueMessage JSON-encodes a message and enqueues it base64-encoded,
// which is what the Functions host expects for queue triggers.
func (s *QueueService) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	queueClient := s.serviceClient.NewQueueClient(queueName)

	_, err := queueClient.Create(ctx, nil)
	if err != nil && !strings.Contains(err.Error(), "QueueAlreadyExists") {
		slog.Warn("failed to create queue", "queue", queueName, "error", err)
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(payload)
	if _, err := queueClient.EnqueueMessage(ctx, encoded, nil); err != nil {
		return fmt.Errorf("failed to enqueue message to %s: %w", queueName, err)
	}

	slog.Info("enqueued message", "queue", queueName)
	return nil
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpetrillo/spendsplit/internal/models"
	"github.com/rpetrillo/spendsplit/internal/report"
)

const testConfigDoc = `{
	"OwnerEmail": "bebas@gmail.com",
	"People": [
		{"Name": "George", "Email": "boygeorge@gmail.com", "Accounts": [1234, 4321]},
		{"Name": "Tootie", "Email": "tuttifruity@hotmail.com", "Accounts": [1313, 2121]}
	]
}`

const testSheet = `Date,Name,Account Number,Amount,Category,Ignored From
2023-09-04,TIKICAT BAR,1234,12.66,Dining & Drinks,
2023-08-31,MADCATS DANCE,1313,17,Dining & Drinks,`

func queueRequest(t *testing.T, msg map[string]string) *http.Request {
	t.Helper()
	item, err := json.Marshal(msg)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"Data": map[string]any{"queueItem": string(item)},
	})
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/ProcessQueue", bytes.NewReader(payload))
}

func testDeps(blob *MockBlobClient, archive *MockArchiveClient, email *MockEmailClient) *Dependencies {
	return &Dependencies{
		Blob:    blob,
		Archive: archive,
		Email:   email,
		Run:     DefaultRunConfig(),
	}
}

func TestProcessQueue_Success(t *testing.T) {
	blob := &MockBlobClient{
		DownloadTextFunc: func(ctx context.Context, container, blobName string) (string, error) {
			switch container {
			case "config":
				assert.Equal(t, "config.json", blobName)
				return testConfigDoc, nil
			case "sheets":
				assert.Equal(t, "uploads/export-2023-09-15.csv", blobName)
				return testSheet, nil
			}
			t.Fatalf("unexpected container %q", container)
			return "", nil
		},
	}

	var archived []models.Transaction
	archive := &MockArchiveClient{
		SaveTransactionsFunc: func(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error) {
			archived = transactions
			return transactions, nil
		},
	}

	var sent *report.Email
	email := &MockEmailClient{
		SendFunc: func(ctx context.Context, e report.Email) error {
			sent = &e
			return nil
		},
	}

	deps := testDeps(blob, archive, email)
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"blob_name": "uploads/export-2023-09-15.csv"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, archived, 2)

	require.NotNil(t, sent)
	assert.Equal(t, "bebas@gmail.com", sent.Sender)
	assert.Equal(t, []string{"boygeorge@gmail.com", "tuttifruity@hotmail.com"}, sent.Recipients)
	assert.Equal(t, "Transactions Summary: 08/31/23 - 09/04/23", sent.Subject)
	assert.Contains(t, sent.HTMLBody, "<td>George</td><td>12.66</td>")
	assert.Contains(t, sent.HTMLBody, "<td>Tootie</td><td>17.00</td>")
	assert.Contains(t, sent.HTMLBody, "<td>Difference</td><td>-4.34</td>")
}

func TestProcessQueue_GarbageSheetStillReports(t *testing.T) {
	blob := &MockBlobClient{
		DownloadTextFunc: func(ctx context.Context, container, blobName string) (string, error) {
			if container == "config" {
				return testConfigDoc, nil
			}
			return "\"unterminated\nnot,a,table", nil
		},
	}

	var sent *report.Email
	email := &MockEmailClient{
		SendFunc: func(ctx context.Context, e report.Email) error {
			sent = &e
			return nil
		},
	}

	deps := testDeps(blob, &MockArchiveClient{}, email)
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"blob_name": "uploads/garbage.csv"}))

	// An unparseable sheet is an all-zero report, not a failure.
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sent)
	assert.Contains(t, sent.HTMLBody, "<td>George</td><td>0.00</td>")
}

func TestProcessQueue_DownloadError(t *testing.T) {
	blob := &MockBlobClient{
		DownloadTextFunc: func(ctx context.Context, container, blobName string) (string, error) {
			if container == "config" {
				return testConfigDoc, nil
			}
			return "", errors.New("blob not found")
		},
	}

	emailCalled := false
	email := &MockEmailClient{
		SendFunc: func(ctx context.Context, e report.Email) error {
			emailCalled = true
			return nil
		},
	}

	deps := testDeps(blob, &MockArchiveClient{}, email)
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"blob_name": "uploads/missing.csv"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, emailCalled, "no email may be sent on a failed run")
}

func TestProcessQueue_BadConfigAborts(t *testing.T) {
	blob := &MockBlobClient{
		DownloadTextFunc: func(ctx context.Context, container, blobName string) (string, error) {
			if container == "config" {
				return `{"OwnerEmail": "a@b.com"}`, nil // missing People
			}
			return testSheet, nil
		},
	}

	deps := testDeps(blob, &MockArchiveClient{}, &MockEmailClient{})
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"blob_name": "uploads/export.csv"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProcessQueue_EmailError(t *testing.T) {
	blob := &MockBlobClient{
		DownloadTextFunc: func(ctx context.Context, container, blobName string) (string, error) {
			if container == "config" {
				return testConfigDoc, nil
			}
			return testSheet, nil
		},
	}
	email := &MockEmailClient{
		SendFunc: func(ctx context.Context, e report.Email) error {
			return errors.New("provider rejected sender")
		},
	}

	deps := testDeps(blob, &MockArchiveClient{}, email)
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"blob_name": "uploads/export.csv"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProcessQueue_MissingQueueItem(t *testing.T) {
	deps := testDeps(&MockBlobClient{}, &MockArchiveClient{}, &MockEmailClient{})

	payload, _ := json.Marshal(map[string]any{"Data": map[string]any{}})
	req := httptest.NewRequest(http.MethodPost, "/ProcessQueue", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessQueue_MissingBlobName(t *testing.T) {
	deps := testDeps(&MockBlobClient{}, &MockArchiveClient{}, &MockEmailClient{})
	w := httptest.NewRecorder()
	deps.ProcessQueue(w, queueRequest(t, map[string]string{"container": "sheets"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

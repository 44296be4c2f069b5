package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleUpload_Success(t *testing.T) {
	var uploadedName, uploadedContent string
	blob := &MockBlobClient{
		UploadTextFunc: func(ctx context.Context, container, blobName, text string) error {
			assert.Equal(t, "sheets", container)
			uploadedName = blobName
			uploadedContent = text
			return nil
		},
	}

	var enqueued any
	queue := &MockQueueClient{
		EnqueueMessageFunc: func(ctx context.Context, queueName string, message any) error {
			assert.Equal(t, "process-queue", queueName)
			enqueued = message
			return nil
		},
	}

	deps := &Dependencies{Blob: blob, Queue: queue, Run: DefaultRunConfig()}
	w := httptest.NewRecorder()
	deps.HandleUpload(w, uploadRequest(t, "export-2023-09-15.csv", "Date,Name\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(uploadedName, "uploads/"))
	assert.True(t, strings.HasSuffix(uploadedName, "-export-2023-09-15.csv"))
	assert.Equal(t, "Date,Name\n", uploadedContent)

	msg, ok := enqueued.(sheetMessage)
	require.True(t, ok)
	assert.Equal(t, "sheets", msg.Container)
	assert.Equal(t, uploadedName, msg.BlobName)
}

func TestHandleUpload_MethodNotAllowed(t *testing.T) {
	deps := &Dependencies{Run: DefaultRunConfig()}
	w := httptest.NewRecorder()
	deps.HandleUpload(w, httptest.NewRequest(http.MethodGet, "/api/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleUpload_BlobError(t *testing.T) {
	blob := &MockBlobClient{
		UploadTextFunc: func(ctx context.Context, container, blobName, text string) error {
			return errors.New("storage unavailable")
		},
	}

	deps := &Dependencies{Blob: blob, Queue: &MockQueueClient{}, Run: DefaultRunConfig()}
	w := httptest.NewRecorder()
	deps.HandleUpload(w, uploadRequest(t, "export.csv", "Date,Name\n"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	deps := &Dependencies{Run: DefaultRunConfig()}
	w := httptest.NewRecorder()
	deps.HandleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

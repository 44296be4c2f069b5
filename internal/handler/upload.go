package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"
)

// sheetMessage is the queue payload describing an uploaded spreadsheet.
type sheetMessage struct {
	Container string `json:"container"`
	BlobName  string `json:"blob_name"`
}

// HandleUpload accepts a multipart CSV upload, stores it as a sheet blob,
// and enqueues a process message for the report run.
func (d *Dependencies) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// 10MB limit; exports are a few hundred KB at most.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		slog.Warn("failed to parse multipart form", "error", err)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("failed to get file from form", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	slog.Info("received sheet upload", "filename", header.Filename, "size_bytes", len(content))

	// Keep the original filename in the blob name: the report date is
	// extracted from it downstream.
	timestamp := time.Now().Format("20060102-150405")
	blobName := fmt.Sprintf("uploads/%s-%s", timestamp, filepath.Base(header.Filename))

	if err := d.Blob.UploadText(r.Context(), d.Run.SheetContainer, blobName, string(content)); err != nil {
		slog.Error("failed to upload sheet blob", "blob_name", blobName, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob: "+err.Error())
		return
	}

	msg := sheetMessage{Container: d.Run.SheetContainer, BlobName: blobName}
	if err := d.Queue.EnqueueMessage(r.Context(), d.Run.ProcessQueue, msg); err != nil {
		slog.Error("failed to enqueue process message", "blob_name", blobName, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue message: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"blobName": blobName,
	})
}

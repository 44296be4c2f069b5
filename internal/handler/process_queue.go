package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rpetrillo/spendsplit/internal/config"
	"github.com/rpetrillo/spendsplit/internal/csvparse"
	"github.com/rpetrillo/spendsplit/internal/models"
	"github.com/rpetrillo/spendsplit/internal/report"
)

// invokeRequest is the payload posted by the Azure Functions host to a
// custom handler for non-HTTP triggers.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// ProcessQueue runs one report: it is triggered by a sheet landing in blob
// storage (via the upload queue), parses the sheet, attributes transactions
// to the configured roster, archives them, and sends exactly one summary
// email. Configuration, storage, and transport errors abort the run;
// malformed rows do not.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var invokeReq invokeRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if err := json.Unmarshal(body, &invokeReq); err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	queueItem, ok := invokeReq.Data["queueItem"]
	if !ok {
		queueItem, ok = invokeReq.Data["queueitem"]
	}
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing queueItem in Data")
		return
	}
	queueItemStr, ok := queueItem.(string)
	if !ok {
		WriteError(w, http.StatusBadRequest, "queueItem is not a string")
		return
	}

	var msg sheetMessage
	if err := json.Unmarshal([]byte(queueItemStr), &msg); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid queueItem JSON: %v", err))
		return
	}
	if msg.BlobName == "" {
		WriteError(w, http.StatusBadRequest, "Missing blob_name")
		return
	}
	if msg.Container == "" {
		msg.Container = d.Run.SheetContainer
	}

	slog.Info("processing sheet", "container", msg.Container, "blob_name", msg.BlobName)

	cfg, err := d.loadConfig(r.Context())
	if err != nil {
		slog.Error("failed to load report config", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load config: %v", err))
		return
	}

	csvContent, err := d.Blob.DownloadText(r.Context(), msg.Container, msg.BlobName)
	if err != nil {
		slog.Error("failed to download sheet", "blob_name", msg.BlobName, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to download sheet: %v", err))
		return
	}

	summary, err := models.NewSummary(report.DateFromObjectKey(msg.BlobName), cfg)
	if err != nil {
		slog.Error("invalid report config", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Invalid config: %v", err))
		return
	}

	transactions, warnings := csvparse.Parse(csvContent, summary.Categories)
	slog.Info("parsed sheet", "blob_name", msg.BlobName,
		"transactions", len(transactions), "skipped_rows", len(warnings))

	summary.AddTransactions(transactions)

	newTransactions, err := d.Archive.SaveTransactions(r.Context(), transactions)
	if err != nil {
		slog.Error("failed to archive transactions", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to archive transactions: %v", err))
		return
	}
	slog.Info("archived transactions", "new", len(newTransactions), "total", len(transactions))

	if err := d.sendSummary(r.Context(), summary, warnings); err != nil {
		slog.Error("failed to send summary email", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err))
		return
	}

	slog.Info("report run complete", "blob_name", msg.BlobName)
	w.WriteHeader(http.StatusOK)
}

func (d *Dependencies) loadConfig(ctx context.Context) (*config.Config, error) {
	doc, err := d.Blob.DownloadText(ctx, d.Run.ConfigContainer, d.Run.ConfigBlob)
	if err != nil {
		return nil, err
	}
	return config.Parse([]byte(doc))
}

func (d *Dependencies) sendSummary(ctx context.Context, summary *models.Summary, warnings []string) error {
	if d.Email == nil {
		return fmt.Errorf("email service is not configured")
	}
	return d.Email.Send(ctx, report.Render(summary, warnings))
}

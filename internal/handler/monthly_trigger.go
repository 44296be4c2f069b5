package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rpetrillo/spendsplit/internal/models"
)

// HandleMonthlyTrigger rebuilds and resends the summary for one month from
// the transaction archive, without re-reading any sheet. The month comes
// from the `month` query parameter (YYYY-MM) and defaults to the current
// month.
func (d *Dependencies) HandleMonthlyTrigger(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid month %q", month))
		return
	}

	slog.Info("starting monthly re-report", "month", month)

	cfg, err := d.loadConfig(r.Context())
	if err != nil {
		slog.Error("failed to load report config", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load config: %v", err))
		return
	}

	summary, err := models.NewSummary(monthStart, cfg)
	if err != nil {
		slog.Error("invalid report config", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Invalid config: %v", err))
		return
	}

	transactions, err := d.Archive.ListTransactions(r.Context(), month)
	if err != nil {
		slog.Error("failed to list archived transactions", "month", month, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list transactions: %v", err))
		return
	}

	summary.AddTransactions(transactions)

	if err := d.sendSummary(r.Context(), summary, nil); err != nil {
		slog.Error("failed to send summary email", "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err))
		return
	}

	slog.Info("monthly re-report complete", "month", month, "transactions", len(transactions))
	w.WriteHeader(http.StatusOK)
}

package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpetrillo/spendsplit/internal/handler"
	"github.com/rpetrillo/spendsplit/internal/services"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	blobService, err := services.NewBlobService()
	if err != nil {
		slog.Error("failed to init BlobService", "error", err)
		os.Exit(1)
	}

	queueService, err := services.NewQueueService()
	if err != nil {
		slog.Error("failed to init QueueService", "error", err)
		os.Exit(1)
	}

	archiveService, err := services.NewArchiveService()
	if err != nil {
		slog.Error("failed to init ArchiveService", "error", err)
		os.Exit(1)
	}

	emailService, err := services.NewEmailService(nil)
	if err != nil {
		slog.Warn("failed to init EmailService (continuing anyway)", "error", err)
	}

	deps := &handler.Dependencies{
		Blob:    blobService,
		Queue:   queueService,
		Archive: archiveService,
		Run:     runConfigFromEnv(),
	}
	if emailService != nil {
		deps.Email = emailService
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/upload", deps.HandleUpload)

	// Function-trigger routes. The host posts trigger payloads here; keep
	// the path matching loose to avoid method mismatch issues.
	mux.HandleFunc("/ProcessQueue", deps.ProcessQueue)
	mux.HandleFunc("/MonthlyTrigger", deps.HandleMonthlyTrigger)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port)
	if err := http.ListenAndServe(":"+port, loggingMiddleware(mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func runConfigFromEnv() handler.RunConfig {
	run := handler.DefaultRunConfig()
	if v := os.Getenv("SHEET_CONTAINER"); v != "" {
		run.SheetContainer = v
	}
	if v := os.Getenv("CONFIG_CONTAINER"); v != "" {
		run.ConfigContainer = v
	}
	if v := os.Getenv("CONFIG_BLOB"); v != "" {
		run.ConfigBlob = v
	}
	if v := os.Getenv("PROCESS_QUEUE"); v != "" {
		run.ProcessQueue = v
	}
	return run
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start))
	})
}

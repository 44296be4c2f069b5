package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RunConfig is the process-wide storage layout, resolved once at startup
// and threaded into the handlers.
type RunConfig struct {
	SheetContainer  string
	ConfigContainer string
	ConfigBlob      string
	ProcessQueue    string
}

// DefaultRunConfig returns the storage layout used when no overrides are
// set.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		SheetContainer:  "sheets",
		ConfigContainer: "config",
		ConfigBlob:      "config.json",
		ProcessQueue:    "process-queue",
	}
}

// Dependencies holds the external collaborators required by the handlers.
type Dependencies struct {
	Blob    BlobClient
	Queue   QueueClient
	Archive ArchiveClient
	Email   EmailClient
	Run     RunConfig
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

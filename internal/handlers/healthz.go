package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz handles the /healthz endpoint. A nil db skips the database check.
func Healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("database unavailable")) // nolint:errcheck
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) // nolint:errcheck
	}
}

// Info describes the running service.
func Info(version, commit string) http.HandlerFunc {
	body := map[string]any{
		"application": "ricefwboard",
		"description": "Search JIRA projects and tag issues with RICEFW categories",
		"version":     version,
		"commit":      commit,
		"features": []string{
			"JIRA project search",
			"Issue board",
			"RICEFW categorization",
			"Workflow transitions",
			"RICEFW ticket tracker",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	}
}

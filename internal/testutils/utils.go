package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gi8lino/ricefwboard/internal/jiramock"
	"github.com/gi8lino/ricefwboard/internal/store"
)

// MustWriteFile writes data to a file or fails the test, creating parent directories if needed.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory %q: %v", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file %q: %v", path, err)
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens a migrated in-memory user store, closed when the test ends.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() }) // nolint:errcheck
	return st
}

// StartJiraSite serves the demo JIRA site and returns a base URL template
// for it. The {domain} placeholder lands in the ignored query string.
func StartJiraSite(t *testing.T) (string, *jiramock.Server) {
	t.Helper()

	fake := jiramock.New(jiramock.DemoSeed())
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + "/?site={domain}", fake
}

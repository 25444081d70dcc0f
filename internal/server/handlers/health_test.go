package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthReportsDependencies(t *testing.T) {
	h := NewHealthHandler(
		func() int64 { return 42 },
		func() int { return 3 },
		map[string]Check{
			"database": nil,
			"redis":    func(context.Context) error { return errors.New("refused") },
			"other":    func(context.Context) error { return nil },
		},
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/server/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Tick != 42 || resp.Empires != 3 {
		t.Errorf("resp = %+v", resp)
	}
	want := map[string]string{"database": "disabled", "redis": "disconnected", "other": "connected"}
	for name, status := range want {
		if resp.Dependencies[name] != status {
			t.Errorf("%s = %q, want %q", name, resp.Dependencies[name], status)
		}
	}
}

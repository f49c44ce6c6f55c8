package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lostbyte/mainhero/internal/dal"
)

type downStorage struct{}

func (downStorage) Ping() error { return errors.New("database is locked") }

type fakeConn bool

func (c fakeConn) IsConnected() bool { return bool(c) }

func healthBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		storage    Pinger
		bus        ConnStatus
		wantCode   int
		wantStatus string
	}{
		{"healthy", dal.NewMemoryDAL(), fakeConn(true), http.StatusOK, "ok"},
		{"no bus", dal.NewMemoryDAL(), nil, http.StatusOK, "ok"},
		{"bus down", dal.NewMemoryDAL(), fakeConn(false), http.StatusOK, "degraded"},
		{"storage down", downStorage{}, fakeConn(true), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(tt.storage, tt.bus)
			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if got := healthBody(t, w)["status"]; got != tt.wantStatus {
				t.Errorf("expected status %s, got %v", tt.wantStatus, got)
			}
		})
	}
}

func TestProbes(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandlers(downStorage{}, nil).Register(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("liveness should not depend on storage, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness should fail without storage, got %d", w.Code)
	}
	if got := healthBody(t, w)["reason"]; got != "storage_unavailable" {
		t.Errorf("unexpected reason %v", got)
	}
}

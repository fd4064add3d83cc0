package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mockDatabaseHealthChecker struct {
	pingErr error
	health  map[string]any
}

func (m *mockDatabaseHealthChecker) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockDatabaseHealthChecker) Health() map[string]any {
	if m.health != nil {
		return m.health
	}
	return map[string]any{}
}

func setupHealthTestRouter(db DatabaseHealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHealthHandler(db, zerolog.Nop())
	handler.RegisterPublicRoutes(r)
	return r
}

func TestHealthOverall(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{health: map[string]any{"total_conns": int32(10)}}
		r := setupHealthTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.Status != HealthStatusHealthy {
			t.Fatalf("expected healthy status, got %q", resp.Status)
		}
		if _, ok := resp.Checks["database"]; !ok {
			t.Fatal("expected a database check in the response")
		}
	})

	t.Run("database unhealthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{pingErr: errors.New("connection refused")}
		r := setupHealthTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}

		var resp HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.Status != HealthStatusUnhealthy {
			t.Fatalf("expected unhealthy status, got %q", resp.Status)
		}
	})

	t.Run("nil db", func(t *testing.T) {
		r := setupHealthTestRouter(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}
	})
}

func TestHealthDatabase(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{health: map[string]any{"total_conns": int32(5)}}
		r := setupHealthTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health/db", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var check HealthCheckResult
		if err := json.Unmarshal(w.Body.Bytes(), &check); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if check.Status != HealthStatusHealthy {
			t.Fatalf("expected healthy status, got %q", check.Status)
		}
		if check.Details == nil {
			t.Fatal("expected pool details in the response")
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{pingErr: errors.New("pool closed")}
		r := setupHealthTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health/db", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}
	})
}

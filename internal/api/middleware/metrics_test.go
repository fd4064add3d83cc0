package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/metrics"
)

func TestMetrics(t *testing.T) {
	registry := metrics.NewRegistry(nil, zerolog.Nop())

	r := gin.New()
	r.Use(Metrics(registry))
	r.GET("/history/:userId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	t.Run("records matched route with template path", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/history/user-1", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		body := scrapeRegistry(t, registry)
		if !strings.Contains(body, `route="/history/:userId"`) {
			t.Error("expected route label with template path")
		}
		if strings.Contains(body, `route="/history/user-1"`) {
			t.Error("expected raw paths to stay out of route labels")
		}
	})

	t.Run("labels unmatched routes with shared value", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/no-such-route", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}

		body := scrapeRegistry(t, registry)
		if !strings.Contains(body, `route="unmatched"`) {
			t.Error("expected unmatched route label")
		}
	})
}

func scrapeRegistry(t *testing.T, registry *metrics.Registry) string {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	registry.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected scrape status 200, got %d", w.Code)
	}
	return w.Body.String()
}

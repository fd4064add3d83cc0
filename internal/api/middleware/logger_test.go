package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLogger(t *testing.T) {
	mw := RequestLogger(zerolog.Nop())

	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fail"})
	})
	r.GET("/bad-request", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	t.Run("successful request", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test?q=hello", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("server error request", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/error", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
	})

	t.Run("client error request", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/bad-request", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}

func TestRedactQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "empty query",
			query: "",
			want:  "",
		},
		{
			name:  "no sensitive params",
			query: "page=2&limit=10",
			want:  "page=2&limit=10",
		},
		{
			name:  "license key redacted",
			query: "licenseKey=BLOOM-1234",
			want:  "licenseKey=%5BREDACTED%5D",
		},
		{
			name:  "token redacted",
			query: "token=abc123",
			want:  "token=%5BREDACTED%5D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactQueryString(tt.query)
			if got != tt.want {
				t.Errorf("redactQueryString(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestRedactQueryString_MixedParams(t *testing.T) {
	got := redactQueryString("search=roses&key=secret123")
	if strings.Contains(got, "secret123") {
		t.Errorf("expected key value to be redacted, got %q", got)
	}
	if !strings.Contains(got, "search=roses") {
		t.Errorf("expected non-sensitive params to survive, got %q", got)
	}
}

package license

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHTTPVerifier_Authentic(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"purchase": map[string]interface{}{
				"order_id": "ord_42",
				"email":    "buyer@example.com",
			},
		})
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, 5*time.Second, zerolog.Nop())
	verification, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-123")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	if !verification.Authentic {
		t.Error("expected authentic verification")
	}
	if verification.Purchase["order_id"] != "ord_42" {
		t.Errorf("expected purchase metadata to pass through, got %+v", verification.Purchase)
	}

	if gotBody["product_id"] != "prod_bloom_pro" {
		t.Errorf("expected product_id in request, got %+v", gotBody)
	}
	if gotBody["license_key"] != "KEY-123" {
		t.Errorf("expected license_key in request, got %+v", gotBody)
	}
	if inc, ok := gotBody["increment_uses_count"].(bool); !ok || inc {
		t.Errorf("expected increment_uses_count=false, got %+v", gotBody["increment_uses_count"])
	}
}

func TestHTTPVerifier_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "That license key does not exist for this product",
		})
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, 5*time.Second, zerolog.Nop())
	verification, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-BOGUS")
	if err != nil {
		t.Fatalf("a rejection is a verdict, not an error, got: %v", err)
	}

	if verification.Authentic {
		t.Error("expected rejected verification")
	}
	if verification.Message == "" {
		t.Error("expected rejection message to be carried")
	}
}

func TestHTTPVerifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, 5*time.Second, zerolog.Nop())
	_, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-123")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Fatalf("expected ErrVerifierUnavailable, got: %v", err)
	}
}

func TestHTTPVerifier_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, 5*time.Second, zerolog.Nop())
	_, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-123")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Fatalf("expected ErrVerifierUnavailable, got: %v", err)
	}
}

func TestHTTPVerifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	v := NewHTTPVerifier(server.URL, time.Second, zerolog.Nop())
	_, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-123")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Fatalf("expected ErrVerifierUnavailable, got: %v", err)
	}
}

func TestHTTPVerifier_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, 50*time.Millisecond, zerolog.Nop())
	_, err := v.Verify(context.Background(), "prod_bloom_pro", "KEY-123")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Fatalf("expected ErrVerifierUnavailable on timeout, got: %v", err)
	}
}

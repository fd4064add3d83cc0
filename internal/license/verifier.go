// Package license implements single-use license key redemption: keys are
// checked against the storefront's verification API and exchanged for
// flowers exactly once.
package license

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/httpclient"
)

// ErrVerifierUnavailable is returned when the storefront's verification API
// cannot be reached or answers with something other than a verdict.
var ErrVerifierUnavailable = errors.New("license verifier unavailable")

// DefaultVerifyTimeout bounds a single verification call.
const DefaultVerifyTimeout = 30 * time.Second

// Verification is the verifier's judgment of a key/product pair.
type Verification struct {
	Authentic bool
	Message   string
	Purchase  map[string]interface{}
}

// Verifier confirms that a license key was issued for a product.
type Verifier interface {
	Verify(ctx context.Context, productID, licenseKey string) (*Verification, error)
}

// HTTPVerifier calls the storefront's license verification endpoint.
// Verification never increments the key's remote usage count, so a call may
// be repeated safely after a timeout or transport failure.
type HTTPVerifier struct {
	verifyURL string
	client    *http.Client
	logger    zerolog.Logger
}

// NewHTTPVerifier creates a verifier client for the given endpoint URL.
// A timeout of 0 falls back to DefaultVerifyTimeout.
func NewHTTPVerifier(verifyURL string, timeout time.Duration, logger zerolog.Logger) *HTTPVerifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return NewHTTPVerifierWithClient(verifyURL, httpclient.NewSimple(timeout), logger)
}

// NewHTTPVerifierWithClient creates a verifier using the supplied client,
// e.g. one built by httpclient.New with an egress proxy configured.
func NewHTTPVerifierWithClient(verifyURL string, client *http.Client, logger zerolog.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		verifyURL: verifyURL,
		client:    client,
		logger:    logger.With().Str("component", "license_verifier").Logger(),
	}
}

// Verify asks the storefront whether licenseKey is authentic for productID.
// A reachable verifier that rejects the key is not an error; the rejection
// comes back in the Verification. Transport failures and undecodable
// responses wrap ErrVerifierUnavailable.
func (v *HTTPVerifier) Verify(ctx context.Context, productID, licenseKey string) (*Verification, error) {
	body := map[string]interface{}{
		"product_id":           productID,
		"license_key":          licenseKey,
		"increment_uses_count": false,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: verifier returned status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	// The storefront reports unknown or revoked keys with a 4xx status and
	// a decodable body; that is a verdict, not an outage.
	var result struct {
		Success  bool                   `json:"success"`
		Message  string                 `json:"message"`
		Purchase map[string]interface{} `json:"purchase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrVerifierUnavailable, err)
	}

	v.logger.Debug().
		Str("product_id", productID).
		Bool("authentic", result.Success).
		Msg("license verified")

	return &Verification{
		Authentic: result.Success,
		Message:   result.Message,
		Purchase:  result.Purchase,
	}, nil
}

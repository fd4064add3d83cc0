// Package httpclient provides HTTP client construction with optional egress
// proxy support for outbound calls such as license verification.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Options configures the HTTP client.
type Options struct {
	// Timeout for HTTP requests (default: 30s)
	Timeout time.Duration
	// ProxyURL routes outbound requests through a proxy. Supports http,
	// https and socks5 schemes. Empty means direct connections.
	ProxyURL string
	// NoProxy is a comma-separated list of hosts that bypass the proxy.
	NoProxy string
}

// New creates an HTTP client with connection pooling and optional proxy support.
func New(opts Options) (*http.Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.ProxyURL != "" {
		if err := configureProxy(transport, opts.ProxyURL, opts.NoProxy); err != nil {
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}, nil
}

// NewSimple creates a simple HTTP client with timeout and no proxy.
func NewSimple(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// configureProxy sets up proxy configuration on the transport.
func configureProxy(transport *http.Transport, rawURL, noProxy string) error {
	proxyURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse proxy URL: %w", err)
	}

	switch proxyURL.Scheme {
	case "socks5":
		return configureSocks5Proxy(transport, proxyURL)
	case "http", "https":
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			if shouldBypassProxy(req.URL.Host, noProxy) {
				return nil, nil
			}
			return proxyURL, nil
		}
		return nil
	default:
		return fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
}

// configureSocks5Proxy sets up a SOCKS5 proxy dialer.
func configureSocks5Proxy(transport *http.Transport, proxyURL *url.URL) error {
	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{
			User:     proxyURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		return fmt.Errorf("create SOCKS5 dialer: %w", err)
	}

	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}

	return nil
}

// shouldBypassProxy checks if a host should bypass the proxy.
func shouldBypassProxy(host string, noProxy string) bool {
	if noProxy == "" {
		return false
	}

	hostOnly, _, err := net.SplitHostPort(host)
	if err != nil {
		hostOnly = host
	}

	for _, pattern := range strings.Split(noProxy, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		// Wildcard match
		if pattern == "*" {
			return true
		}

		// Exact match
		if strings.EqualFold(hostOnly, pattern) {
			return true
		}

		// Domain suffix match (e.g., .example.com)
		if strings.HasPrefix(pattern, ".") {
			if strings.HasSuffix(strings.ToLower(hostOnly), strings.ToLower(pattern)) {
				return true
			}
		}

		// Subdomain match (e.g., example.com matches foo.example.com)
		if strings.HasSuffix(strings.ToLower(hostOnly), "."+strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

// MaskCredentials masks the password in a proxy URL for display.
func MaskCredentials(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.User != nil {
		username := u.User.Username()
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(username, "****")
		}
	}

	return u.String()
}

// Package transport provides the HTTP transport used to reach host stores.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// TLS FINGERPRINT TRANSPORT
// =============================================================================
//
// Self-hosted stores commonly sit behind Cloudflare or a WAF plugin, and
// Go's standard TLS client has a distinctive fingerprint that gets its REST
// requests challenged or rate limited on those setups.
//
// This transport uses uTLS to present a Chrome-like TLS fingerprint with
// full HTTP/2 support:
//
//   1. Use uTLS with HelloChrome_Auto for Chrome's TLS fingerprint
//   2. Let ALPN negotiate naturally (h2, http/1.1)
//   3. Use Go's http2.Transport for HTTP/2 framing when negotiated
//
// =============================================================================

// NewBrowserTransport creates an http.RoundTripper that presents Chrome's
// TLS fingerprint to the store. Supports both HTTP/2 and HTTP/1.1 based on
// ALPN negotiation. Use this for stores fronted by CDNs that apply JA3
// fingerprinting to API traffic.
func NewBrowserTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	// HTTP/2 transport with custom TLS dial
	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
	}

	// HTTP/1.1 fallback transport with custom TLS dial
	h1Transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &browserTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

// browserTransport wraps HTTP/2 and HTTP/1.1 transports with Chrome's TLS
// fingerprint.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
// Tries HTTP/2 first, falls back to HTTP/1.1 if the store doesn't support h2.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// Plenty of shared hosts still terminate TLS without h2 support.
	return t.h1.RoundTrip(req)
}

// dialBrowserTLS establishes a TLS connection with Chrome's fingerprint.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	// Extract hostname for SNI
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	// Chrome fingerprint with default ALPN (h2, http/1.1)
	tlsConfig := &utls.Config{
		ServerName: host,
	}
	tlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_Auto)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}

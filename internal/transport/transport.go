// Package transport builds the pooled HTTP clients used for outbound calls.
package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout caps a single outbound request.
const DefaultTimeout = 15 * time.Second

// New returns a pooled Transport with optional TLS verification skipping.
func New(skipTLSVerify bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipTLSVerify, // NOTE: intended for dev only
		},

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient wraps rt in an http.Client with a hard per-request timeout.
// A zero timeout falls back to DefaultTimeout.
func NewClient(rt http.RoundTripper, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

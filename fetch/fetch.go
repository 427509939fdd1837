// Package fetch downloads source images from URLs or reads them from the
// local filesystem.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a whole download.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes limits the size of a downloaded image.
	DefaultMaxBytes = 32 << 20
)

// ErrTooLarge is returned when a source exceeds the size limit.
var ErrTooLarge = errors.New("fetch: source exceeds size limit")

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %d %s",
		e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client fetches image bytes. One Client is shared by all requests of a
// host; Close releases its idle connections.
type Client struct {
	http      *http.Client
	transport *http.Transport
	header    http.Header
	maxBytes  int64
	timeout   time.Duration
	legacyTLS bool
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header to every HTTP request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithBearerToken authenticates every HTTP request with a bearer token.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.header.Set("Authorization", "Bearer "+token)
	}
}

// WithTimeout bounds each fetch. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxBytes limits the size of a fetched source.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// WithLegacyTLS pins connections to TLS 1.2 with ECDHE AEAD cipher
// suites. It is on by default.
func WithLegacyTLS(enabled bool) Option {
	return func(c *Client) {
		c.legacyTLS = enabled
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		header:    make(http.Header),
		maxBytes:  DefaultMaxBytes,
		timeout:   DefaultTimeout,
		legacyTLS: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.transport = http.DefaultTransport.(*http.Transport).Clone()
	if c.legacyTLS {
		c.transport.TLSClientConfig = legacyTLSConfig()
	}
	c.http = &http.Client{Transport: c.transport}
	return c
}

// legacyTLSConfig allows exactly TLS 1.2 with forward-secret AEAD suites.
func legacyTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
	}
}

// Fetch returns the bytes behind locator. http:// and https:// locators
// are downloaded and must answer 200 OK. A file:// prefix is stripped and
// anything else is read as a local path.
func (c *Client) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return c.get(ctx, locator)
	case strings.HasPrefix(locator, "file://"):
		return c.readFile(strings.TrimPrefix(locator, "file://"))
	default:
		return c.readFile(locator)
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return c.readAll(resp.Body)
}

func (c *Client) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer f.Close()
	return c.readAll(f)
}

func (c *Client) readAll(r io.Reader) ([]byte, error) {
	if c.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

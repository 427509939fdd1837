package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchHTTP(t *testing.T) {
	payload := []byte("GIF89a-not-really")
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Write(payload)
	}))
	defer srv.Close()

	c := NewClient(WithBearerToken("secret"), WithHeader("User-Agent", "charpic-test"))
	defer c.Close()

	data, err := c.Fetch(context.Background(), srv.URL+"/cat.gif")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Fetch = %q, want %q", data, payload)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAgent != "charpic-test" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient()
	defer c.Close()

	_, err := c.Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Fetch error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", se.StatusCode)
	}
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewClient()
	defer c.Close()

	for _, loc := range []string{path, "file://" + path} {
		data, err := c.Fetch(context.Background(), loc)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", loc, err)
		}
		if string(data) != "png" {
			t.Errorf("Fetch(%q) = %q", loc, data)
		}
	}

	if _, err := c.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestFetchSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big")
	if err := os.WriteFile(path, make([]byte, 11), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewClient(WithMaxBytes(10))
	if _, err := c.Fetch(context.Background(), path); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
	c = NewClient(WithMaxBytes(11))
	if _, err := c.Fetch(context.Background(), path); err != nil {
		t.Errorf("at limit: %v", err)
	}
}

func TestLegacyTLSProfile(t *testing.T) {
	c := NewClient()
	cfg := c.transport.TLSClientConfig
	if cfg == nil {
		t.Fatal("no TLS config")
	}
	if cfg.MinVersion != tls.VersionTLS12 || cfg.MaxVersion != tls.VersionTLS12 {
		t.Errorf("versions = %x..%x, want TLS 1.2 only", cfg.MinVersion, cfg.MaxVersion)
	}
	if len(cfg.CipherSuites) == 0 {
		t.Error("no cipher suites pinned")
	}

	c = NewClient(WithLegacyTLS(false))
	if c.transport.TLSClientConfig != nil && c.transport.TLSClientConfig.MaxVersion == tls.VersionTLS12 {
		t.Error("legacy profile applied although disabled")
	}
}

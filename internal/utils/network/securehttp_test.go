package network

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"
)

func TestNewSecureHTTPClient(t *testing.T) {
	c := NewSecureHTTPClient(30 * time.Second)
	if c.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", c.Timeout)
	}

	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2 minimum, got %x", tr.TLSClientConfig.MinVersion)
	}
	if tr.Proxy == nil {
		t.Error("expected proxy settings to come from environment")
	}
}

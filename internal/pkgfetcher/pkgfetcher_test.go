package pkgfetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newReleaseServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/download/iamcommitted-v0.1.0-macos.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "archive-bytes")
	})
	mux.HandleFunc("/download/iamcommitted-v0.1.0-macos.tar.gz.asc", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "signature-bytes")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFiles(t *testing.T) {
	srv := newReleaseServer(t)
	dest := filepath.Join(t.TempDir(), "cache")

	urls := []string{
		srv.URL + "/download/iamcommitted-v0.1.0-macos.tar.gz",
		srv.URL + "/download/iamcommitted-v0.1.0-macos.tar.gz.asc",
	}
	paths, err := FetchFiles(context.Background(), srv.Client(), urls, dest, 2, io.Discard)
	if err != nil {
		t.Fatalf("FetchFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}

	want := []string{"archive-bytes", "signature-bytes"}
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("reading %s: %v", p, err)
		}
		if string(data) != want[i] {
			t.Errorf("path %d content = %q, want %q", i, data, want[i])
		}
	}

	entries, _ := os.ReadDir(dest)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".part-") {
			t.Errorf("leftover partial file %s", e.Name())
		}
	}
}

func TestFetchFilesBadStatus(t *testing.T) {
	srv := newReleaseServer(t)
	dest := t.TempDir()

	_, err := FetchFiles(context.Background(), srv.Client(),
		[]string{srv.URL + "/download/missing.tar.gz"}, dest, 1, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status in error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "missing.tar.gz")); !os.IsNotExist(statErr) {
		t.Error("failed download must not leave a file behind")
	}
}

func TestFetchFilesCancelledContext(t *testing.T) {
	srv := newReleaseServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchFiles(ctx, srv.Client(),
		[]string{srv.URL + "/download/iamcommitted-v0.1.0-macos.tar.gz"}, t.TempDir(), 1, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDestinationFor(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://github.com/x/releases/download/v0.1.0/a.tar.gz", "a.tar.gz", false},
		{"https://example.com/", "", true},
		{"ftp://example.com/a.tar.gz", "", true},
	}
	for _, tt := range tests {
		got, err := destinationFor("/cache", tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("destinationFor(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != filepath.Join("/cache", tt.want) {
			t.Errorf("destinationFor(%q) = %q", tt.url, got)
		}
	}
}

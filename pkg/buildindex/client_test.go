package buildindex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testIndex = `{
  "darwin": [
    {
      "version": "4.2.1",
      "files": [
        {"name": "App-4.2.1-symbols.zip", "url": "https://cdn.example.com/sym.zip", "sha1": "aaaa", "size": 10, "type": "symbols"},
        {"name": "App-4.2.1-mac.zip", "url": "https://cdn.example.com/mac.zip", "sha1": "bbbb", "size": 2048, "type": "client"}
      ]
    },
    {
      "version": "4.1.0",
      "files": [
        {"name": "App-4.1.0-mac.zip", "url": "https://cdn.example.com/old.zip", "sha1": "cccc", "size": 1024, "type": "client"}
      ]
    }
  ],
  "win32": [
    {
      "version": "4.2.1",
      "files": [
        {"name": "App-4.2.1-win.zip", "url": "https://cdn.example.com/win.zip", "sha1": "dddd", "size": 4096, "type": "client"}
      ]
    }
  ]
}`

func newIndexServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testIndex))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLookupExactVersion(t *testing.T) {
	server := newIndexServer(t)
	client := NewClient(server.URL)

	desc, err := client.Lookup(context.Background(), "darwin", "4.2.1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if desc.ArchiveName != "App-4.2.1-mac.zip" {
		t.Errorf("ArchiveName = %q, want the client file, not symbols", desc.ArchiveName)
	}
	if desc.SHA1 != "bbbb" {
		t.Errorf("SHA1 = %q, want %q", desc.SHA1, "bbbb")
	}
	if desc.Size != 2048 {
		t.Errorf("Size = %d, want 2048", desc.Size)
	}
}

func TestLookupVersionPrefix(t *testing.T) {
	server := newIndexServer(t)
	client := NewClient(server.URL)

	// "4.2" prefix-matches the 4.2.1 build
	desc, err := client.Lookup(context.Background(), "darwin", "4.2")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if desc.Version != "4.2.1" {
		t.Errorf("Version = %q, want %q", desc.Version, "4.2.1")
	}

	// "4" matches the first listed build
	desc, err = client.Lookup(context.Background(), "darwin", "4")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if desc.Version != "4.2.1" {
		t.Errorf("Version = %q, want first match %q", desc.Version, "4.2.1")
	}
}

func TestLookupNoDigitRunMatch(t *testing.T) {
	server := newIndexServer(t)
	client := NewClient(server.URL)

	// "4.2.11" must not match "4.2.1": prefix matching is per dotted
	// component, not per character
	_, err := client.Lookup(context.Background(), "darwin", "4.2.11")
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("Lookup() error = %v, want *LookupError", err)
	}
}

func TestLookupUnknownPlatform(t *testing.T) {
	server := newIndexServer(t)
	client := NewClient(server.URL)

	_, err := client.Lookup(context.Background(), "linux", "4.2.1")
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("Lookup() error = %v, want *LookupError", err)
	}
}

func TestLookupUnknownVersion(t *testing.T) {
	server := newIndexServer(t)
	client := NewClient(server.URL)

	_, err := client.Lookup(context.Background(), "darwin", "9.9.9")
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("Lookup() error = %v, want *LookupError", err)
	}
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Lookup(context.Background(), "darwin", "4.2.1"); err == nil {
		t.Error("Lookup() should fail on server error")
	}
}

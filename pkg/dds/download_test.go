package dds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExpectedSizeFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want int64
	}{
		{"https://files.example/scene.zip?size=12345", 12345},
		{"https://files.example/scene.zip", 0},
		{"https://files.example/scene.zip?size=abc", 0},
		{"https://files.example/scene.zip?size=-5", 0},
		{"://bad", 0},
	}
	for _, tt := range tests {
		if got := ExpectedSizeFromURL(tt.url); got != tt.want {
			t.Errorf("ExpectedSizeFromURL(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://files.example/path/scene.zip?size=1", "scene.zip"},
		{"https://files.example/", "download.bin"},
		{"https://files.example", "download.bin"},
	}
	for _, tt := range tests {
		if got := FilenameFromURL(tt.url); got != tt.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFetchArchiveStreamsBody(t *testing.T) {
	payload := []byte("archive payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("Download requests must not carry an Authorization header")
		}
		w.Write(payload)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	body, size, err := client.FetchArchive(context.Background(), server.URL+"/scene.zip")
	if err != nil {
		t.Fatalf("FetchArchive failed: %v", err)
	}
	defer body.Close()

	if size != int64(len(payload)) {
		t.Errorf("Expected size %d from Content-Length, got %d", len(payload), size)
	}
	data, err := io.ReadAll(body)
	if err != nil || string(data) != string(payload) {
		t.Error("Streamed body does not match payload")
	}
}

func TestFetchArchivePrefersSizeParam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("xx"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	body, size, err := client.FetchArchive(context.Background(), server.URL+"/scene.zip?size=999")
	if err != nil {
		t.Fatalf("FetchArchive failed: %v", err)
	}
	body.Close()

	if size != 999 {
		t.Errorf("Expected size from query param, got %d", size)
	}
}

func TestFetchArchiveErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, _, err := client.FetchArchive(context.Background(), server.URL+"/scene.zip")
	if err == nil {
		t.Fatal("Expected error for 403 response")
	}
}

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Tributary Test/1.0" {
			t.Errorf("Expected configured user agent, got '%s'", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "Tributary Test/1.0")

	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<rss></rss>" {
		t.Errorf("Unexpected body: %s", data)
	}
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test")

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", httpErr.StatusCode)
	}
}

func TestFetcher_Fetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test")

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrEmptyBody) {
		t.Errorf("Expected ErrEmptyBody, got %v", err)
	}
}

func TestFetcher_Fetch_NetworkError(t *testing.T) {
	fetcher := NewFetcher(2*time.Second, "test")

	// Port 1 is never listening
	_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1/feed")
	if err == nil {
		t.Fatal("Expected error for unreachable host")
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("Expected *NetworkError, got %T", err)
	}
}

func TestFetcher_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	fetcher := NewFetcher(100*time.Millisecond, "test")

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected timeout error")
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("Expected *NetworkError, got %T", err)
	}
}

func TestFetcher_Fetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fetcher.Fetch(ctx, server.URL); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

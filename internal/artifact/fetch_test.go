package artifact

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetcherOpen(t *testing.T) {
	var gotUserAgent, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("content"))
	}))
	defer server.Close()

	f := NewFetcher(WithUserAgent("tooldef-test"), WithGitHubToken("secret"))
	body, err := f.Open(context.Background(), server.URL+"/file")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("body = %q, want %q", data, "content")
	}
	if gotUserAgent != "tooldef-test" {
		t.Errorf("User-Agent = %q", gotUserAgent)
	}
	if gotAuth != "" {
		t.Errorf("token sent to non-GitHub host: %q", gotAuth)
	}
}

func TestFetcherWithHTTPClient(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("over tls"))
	}))
	defer server.Close()

	t.Run("default_client_rejects_unknown_ca", func(t *testing.T) {
		_, err := NewFetcher(WithRetries(0)).Open(context.Background(), server.URL)
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) || fetchErr.StatusCode != 0 {
			t.Fatalf("expected transport *FetchError, got %v", err)
		}
	})

	t.Run("injected_client", func(t *testing.T) {
		body, err := NewFetcher(WithHTTPClient(server.Client())).Open(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if string(data) != "over tls" {
			t.Errorf("body = %q", data)
		}
	})
}

func TestFetcherRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(WithRetries(3))
	f.backoff = time.Millisecond

	body, err := f.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body.Close()

	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetcherGivesUp(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(WithRetries(2))
	f.backoff = time.Millisecond

	_, err := f.Open(context.Background(), server.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", fetchErr.StatusCode)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetcherClientErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantAttempts int32
	}{
		{name: "not_found", status: http.StatusNotFound, wantAttempts: 1},
		{name: "forbidden", status: http.StatusForbidden, wantAttempts: 1},
		{name: "too_many_requests", status: http.StatusTooManyRequests, wantAttempts: 3},
		{name: "request_timeout", status: http.StatusRequestTimeout, wantAttempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewFetcher(WithRetries(2))
			f.backoff = time.Millisecond

			_, err := f.Open(context.Background(), server.URL)
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) || fetchErr.StatusCode != tt.status {
				t.Fatalf("expected *FetchError with status %d, got %v", tt.status, err)
			}
			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestFetcherContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher().Open(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsGitHubHost(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "https://github.com/o/r/releases/download/v1/a.tgz", want: true},
		{raw: "https://api.github.com/repos/o/r", want: true},
		{raw: "https://GitHub.com/o/r", want: true},
		{raw: "https://objects.githubusercontent.com/a", want: false},
		{raw: "https://evilgithub.com/a", want: false},
		{raw: "https://example.com/a", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatalf("url.Parse: %v", err)
			}
			if got := isGitHubHost(u); got != tt.want {
				t.Errorf("isGitHubHost(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

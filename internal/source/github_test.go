package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		HTTPClient: server.Client(),
		UserAgent:  "tooldef-test",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_RequiresHTTPS(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://api.example.com"})
	if err == nil {
		t.Fatal("expected error for plain HTTP base URL")
	}

	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, defaultBaseURL)
	}
}

func TestClient_ListReleases_Pagination(t *testing.T) {
	var serverURL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/fortify/fcli/releases" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != githubAPIVersion {
			t.Errorf("X-GitHub-Api-Version = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "tooldef-test" {
			t.Errorf("User-Agent = %q", got)
		}

		switch r.URL.Query().Get("page") {
		case "":
			if got := r.URL.Query().Get("per_page"); got != "100" {
				t.Errorf("per_page = %q, want 100", got)
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/fortify/fcli/releases?per_page=100&page=2>; rel="next", <%s/repos/fortify/fcli/releases?per_page=100&page=2>; rel="last"`, serverURL, serverURL))
			fmt.Fprint(w, `[{"tag_name":"v2.0.0","draft":false,"prerelease":false,"assets":[{"name":"a.tgz","browser_download_url":"https://example.com/a.tgz"}]}]`)
		case "2":
			fmt.Fprint(w, `[{"tag_name":"v1.0.0","draft":true,"prerelease":true,"assets":[]}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	serverURL = client.baseURL

	releases, err := client.ListReleases(context.Background(), "fortify", "fcli")
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}

	want := []Release{
		{TagName: "v2.0.0", Assets: []Asset{{Name: "a.tgz", BrowserDownloadURL: "https://example.com/a.tgz"}}},
		{TagName: "v1.0.0", Draft: true, Prerelease: true, Assets: []Asset{}},
	}
	if !reflect.DeepEqual(releases, want) {
		t.Errorf("ListReleases() = %+v, want %+v", releases, want)
	}
}

func TestClient_ListReleases_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`)
	})

	_, err := client.ListReleases(context.Background(), "fortify", "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}

	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiError.Message != "Not Found" || apiError.DocumentationURL != "https://docs.github.com/rest" {
		t.Errorf("APIError = %+v", apiError)
	}
}

func TestParseAPIError_RawBody(t *testing.T) {
	err := parseAPIError(http.StatusBadGateway, strings.NewReader("upstream down"))
	if err.Message != "upstream down" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != "github: HTTP 502: upstream down" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{
			name:   "next_and_last",
			header: `<https://api.github.com/r?page=2>; rel="next", <https://api.github.com/r?page=5>; rel="last"`,
			want:   "https://api.github.com/r?page=2",
		},
		{
			name:   "last_page",
			header: `<https://api.github.com/r?page=1>; rel="first", <https://api.github.com/r?page=4>; rel="prev"`,
			want:   "",
		},
		{name: "malformed", header: `https://api.github.com/r?page=2; rel="next"`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLinkNext(tt.header); got != tt.want {
				t.Errorf("parseLinkNext() = %q, want %q", got, tt.want)
			}
		})
	}
}

package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// releasesPerPage is the largest page size GitHub accepts.
const releasesPerPage = 100

// Config holds configuration for creating a GitHub API Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// Token is an optional personal access or workflow token. Without it
	// requests are anonymous and subject to stricter rate limits.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to a client with
	// a one minute timeout.
	HTTPClient *http.Client

	// UserAgent is sent with every request.
	UserAgent string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client lists GitHub releases.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a GitHub API client from the given configuration.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "tooldef"
	}

	return &Client{
		baseURL:    baseURL,
		token:      config.Token,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Releases returns an iterator over all releases of owner/repo, newest
// first as ordered by GitHub.
func (client *Client) Releases(owner, repo string) *PageIterator[Release] {
	return &PageIterator[Release]{
		client: client,
		nextURL: fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
			client.baseURL, url.PathEscape(owner), url.PathEscape(repo), releasesPerPage),
	}
}

// ListReleases fetches every release of owner/repo across all pages.
func (client *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	releases, err := client.Releases(owner, repo).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("list releases of %s/%s: %w", owner, repo, err)
	}
	client.logger.Debug("listed releases", "repo", owner+"/"+repo, "count", len(releases))
	return releases, nil
}

// get executes an authenticated GET request. The caller closes the body.
func (client *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}

	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	request.Header.Set("User-Agent", client.userAgent)
	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", rawURL, err)
	}
	return response, nil
}

package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoSource is returned when a tool defines neither a repository nor a
// static URL map.
var ErrNoSource = errors.New("either a repository or a static URL map must be configured")

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub, or the raw
	// body when it is not a GitHub error document.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response,
// which is also what GitHub answers for private repositories without a token.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

func parseAPIError(statusCode int, body io.Reader) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	raw, _ := io.ReadAll(io.LimitReader(body, 64*1024))

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(raw, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else {
		apiError.Message = string(raw)
	}

	return apiError
}

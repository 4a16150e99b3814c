package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ArtifactServer serves fixed file contents and counts requests per path.
type ArtifactServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string]string
	hits  map[string]int
}

// NewArtifactServer starts a server that serves files keyed by name, e.g.
// "v1.0.0/tool-linux.tar.gz" is served at /v1.0.0/tool-linux.tar.gz.
// Unknown paths answer 404.
func NewArtifactServer(t *testing.T, files map[string]string) *ArtifactServer {
	t.Helper()

	s := &ArtifactServer{
		files: make(map[string]string, len(files)),
		hits:  make(map[string]int),
	}
	for name, content := range files {
		s.files[name] = content
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")

		s.mu.Lock()
		s.hits[name]++
		content, ok := s.files[name]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	t.Cleanup(s.Close)

	return s
}

// FileURL returns the absolute URL of a served file.
func (s *ArtifactServer) FileURL(name string) string {
	return s.Server.URL + "/" + name
}

// Hits returns how often a file was requested.
func (s *ArtifactServer) Hits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

// SetFile replaces the content served for name.
func (s *ArtifactServer) SetFile(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = content
}

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheKeyDistinguishesPairs(t *testing.T) {
	tests := []struct {
		name      string
		versionA  string
		urlA      string
		versionB  string
		urlB      string
		wantEqual bool
	}{
		{
			name:      "identical_pairs",
			versionA:  "1.0.0",
			urlA:      "https://example.com/a.tgz",
			versionB:  "1.0.0",
			urlB:      "https://example.com/a.tgz",
			wantEqual: true,
		},
		{
			name:     "same_basename_different_host",
			versionA: "1.0.0",
			urlA:     "https://one.example.com/a.tgz",
			versionB: "1.0.0",
			urlB:     "https://two.example.com/a.tgz",
		},
		{
			name:     "shifted_boundary",
			versionA: "1.0.0-",
			urlA:     "x",
			versionB: "1.0.0",
			urlB:     "-x",
		},
		{
			name:     "different_version",
			versionA: "1.0.0",
			urlA:     "https://example.com/a.tgz",
			versionB: "1.0.1",
			urlB:     "https://example.com/a.tgz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CacheKey(tt.versionA, tt.urlA)
			b := CacheKey(tt.versionB, tt.urlB)
			if (a == b) != tt.wantEqual {
				t.Errorf("CacheKey equality = %v, want %v (%s vs %s)", a == b, tt.wantEqual, a, b)
			}
			if len(a) != 32 {
				t.Errorf("CacheKey length = %d, want 32", len(a))
			}
		})
	}
}

func TestStorePathIsFileNameSafe(t *testing.T) {
	store := NewStore(t.TempDir())

	path := store.Path("1.0.0/../../etc", "https://example.com/dl/tool%20x.tar.gz?x=1")
	if filepath.Dir(path) != store.Dir() {
		t.Fatalf("cache path escapes the store: %s", path)
	}
	base := filepath.Base(path)
	if strings.ContainsAny(base, "/\\?%") {
		t.Errorf("unsafe characters in cache file name %q", base)
	}
	if !strings.HasSuffix(base, ".json") {
		t.Errorf("cache file name %q lacks .json suffix", base)
	}
}

func TestStorePutGet(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cache", "tool"))
	d := Descriptor{
		DownloadURL: "https://example.com/tool-linux.tar.gz",
		RSASHA256:   "c2lnbmF0dXJl",
		SHA256:      strings.Repeat("a", 64),
	}

	if _, ok, err := store.Get("1.0.0", d.DownloadURL); err != nil || ok {
		t.Fatalf("Get on empty store = (%v, %v), want miss", ok, err)
	}

	if err := store.Put("1.0.0", d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get("1.0.0", d.DownloadURL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got != d {
		t.Errorf("Get = %+v, want %+v", got, d)
	}

	// A different version must not see the entry.
	if _, ok, _ := store.Get("1.0.1", d.DownloadURL); ok {
		t.Error("entry leaked to a different version")
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one cache file (no temp leftovers), got %d", len(entries))
	}
}

func TestStorePutRejectsIncompleteDescriptor(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.Put("1.0.0", Descriptor{DownloadURL: "https://example.com/a"})
	if err == nil {
		t.Fatal("expected error for incomplete descriptor")
	}
}

func TestStoreGetCorruptEntry(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid_json", content: "{not json"},
		{name: "missing_fields", content: `{"downloadUrl": "https://example.com/a.tgz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(t.TempDir())
			url := "https://example.com/a.tgz"
			if err := os.WriteFile(store.Path("1.0.0", url), []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write entry: %v", err)
			}

			_, ok, err := store.Get("1.0.0", url)
			if ok {
				t.Error("corrupt entry reported as hit")
			}
			var corrupt *CorruptEntryError
			if !errors.As(err, &corrupt) {
				t.Fatalf("expected *CorruptEntryError, got %v", err)
			}
			if corrupt.Path != store.Path("1.0.0", url) {
				t.Errorf("error path = %s", corrupt.Path)
			}
		})
	}
}

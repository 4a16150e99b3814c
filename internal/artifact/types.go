package artifact

import (
	"net/url"
	"path"
)

// Descriptor holds the integrity metadata of a single downloadable binary.
//
// Descriptors are persisted verbatim as cache entries. Adding or renaming
// fields invalidates every existing entry, so existing cache directories must
// be removed by hand when this struct changes.
type Descriptor struct {
	DownloadURL string `json:"downloadUrl"`
	RSASHA256   string `json:"rsa_sha256"`
	SHA256      string `json:"sha256"`
}

// Complete reports whether every field has been populated.
func (d Descriptor) Complete() bool {
	return d.DownloadURL != "" && d.RSASHA256 != "" && d.SHA256 != ""
}

// Name returns the file name component of the download URL.
func (d Descriptor) Name() string {
	return baseName(d.DownloadURL)
}

// baseName returns the last path segment of rawURL, falling back to the raw
// string when it does not parse as a URL.
func baseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return path.Base(rawURL)
	}
	return path.Base(u.Path)
}

package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/version"
)

// Builder assembles manifests for one tool.
type Builder struct {
	classifier *Classifier
	properties []propertyRule
}

type propertyRule struct {
	pattern    *regexp.Regexp
	properties []config.Property
}

// NewBuilder compiles the artifact type and extra property rules of tool.
func NewBuilder(tool config.Tool) (*Builder, error) {
	rules := tool.ArtifactTypes
	if len(rules) == 0 {
		rules = config.DefaultArtifactTypes
	}
	classifier, err := NewClassifier(rules)
	if err != nil {
		return nil, err
	}

	b := &Builder{classifier: classifier}
	for i, rule := range tool.ExtraProperties {
		re, err := config.FullMatch(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile extra properties %d: %w", i+1, err)
		}
		b.properties = append(b.properties, propertyRule{pattern: re, properties: rule.Properties})
	}
	return b, nil
}

// Build creates the manifest for ds, keeping the order of ds and of the
// artifacts of each version.
func (b *Builder) Build(ds version.Descriptors) (*Document, error) {
	doc := &Document{SchemaVersion: SchemaVersion, Versions: make([]Version, 0, ds.Len())}
	for _, d := range ds.All() {
		entry, err := b.version(d)
		if err != nil {
			return nil, err
		}
		doc.Versions = append(doc.Versions, entry)
	}
	return doc, nil
}

func (b *Builder) version(d *version.Descriptor) (Version, error) {
	entry := Version{
		Version: d.Version(),
		Aliases: d.Aliases(),
		Stable:  d.Stable(),
	}
	if len(entry.Aliases) == 0 {
		entry.Aliases = nil
	}

	urlsByType := make(map[string]string)
	for _, a := range d.Artifacts() {
		typ, ok := b.classifier.Classify(a.DownloadURL)
		if !ok {
			return Version{}, &ClassificationError{
				Version: d.Version(),
				URL:     a.DownloadURL,
				Message: "no artifact type mapping found",
			}
		}
		if other, dup := urlsByType[typ]; dup {
			return Version{}, &ClassificationError{
				Version:  d.Version(),
				URL:      a.DownloadURL,
				OtherURL: other,
				Type:     typ,
				Message:  "multiple artifacts with same type",
			}
		}
		urlsByType[typ] = a.DownloadURL

		entry.Binaries = append(entry.Binaries, Binary{
			Type:        typ,
			Name:        a.Name(),
			DownloadURL: a.DownloadURL,
			SHA256:      a.SHA256,
			RSASHA256:   a.RSASHA256,
		})
	}

	for _, rule := range b.properties {
		if !rule.pattern.MatchString(d.Version()) {
			continue
		}
		for _, p := range rule.properties {
			entry.ExtraProperties.set(p.Key, p.Value)
		}
	}

	return entry, nil
}

// Marshal encodes doc with two-space indentation.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores doc at path. The manifest is written to a temporary file in
// the same directory and renamed into place.
func Write(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmpFile.Chmod(0644); err != nil {
		return fmt.Errorf("chmod manifest: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	cleanupNeeded = false

	// Sync directory for durability
	if df, err := os.Open(dir); err == nil {
		df.Sync()
		df.Close()
	}
	return nil
}

// Read parses the manifest at path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a manifest. Empty alias lists decode as nil.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("decode manifest: unsupported schema_version %q", doc.SchemaVersion)
	}
	for i := range doc.Versions {
		if len(doc.Versions[i].Aliases) == 0 {
			doc.Versions[i].Aliases = nil
		}
	}
	return &doc, nil
}

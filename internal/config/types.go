package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/version"
)

// Tool is a parsed tool definition. It is treated as immutable once
// validated.
type Tool struct {
	// Name of the tool; names the manifest and the cache namespace
	Name string

	// Repo is the GitHub repository ("owner/repo") releases are read from.
	// Mutually exclusive with URLs.
	Repo string

	// URLs is a static version to download URL map.
	URLs URLMap

	// TagRegex, when set, must match the complete release tag
	TagRegex string

	// AssetRegex, when set, must match the complete asset name
	AssetRegex string

	// TagMappings rewrite tags into version strings; first match wins
	TagMappings []Rule

	// AliasMode selects the alias classes derived besides "latest"
	AliasMode version.AliasMode

	// ArtifactTypes classify lower-cased download URLs; first match wins
	ArtifactTypes []Rule

	// ExtraProperties attach properties to matching versions
	ExtraProperties []PropertyRule
}

// Rule pairs a full-match pattern with a value.
type Rule struct {
	Pattern string
	Value   string
}

// Property is a single extra property.
type Property struct {
	Key   string
	Value string
}

// PropertyRule attaches Properties to every version matching Pattern.
type PropertyRule struct {
	Pattern    string
	Properties []Property
}

// VersionURLs lists the download URLs of one version.
type VersionURLs struct {
	Version string
	URLs    []string
}

// URLMap is a static version to download URL map, ordered by version
// string.
type URLMap []VersionURLs

// DefaultArtifactTypes classifies every artifact as "default".
var DefaultArtifactTypes = []Rule{{Pattern: ".*", Value: "default"}}

// ValidationError represents a tool definition validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "tool validation failed for " + e.Field + ": " + e.Message
	}
	return "tool validation failed: " + e.Message
}

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// WithDefaults returns a copy of t with defaults applied to unset fields.
func (t Tool) WithDefaults() Tool {
	if len(t.ArtifactTypes) == 0 {
		t.ArtifactTypes = append([]Rule(nil), DefaultArtifactTypes...)
	}
	if t.AliasMode == "" {
		t.AliasMode = version.AliasNone
	}
	return t
}

// Validate checks the tool definition. It expects defaults to be applied.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(t.Name) > 128 || !namePattern.MatchString(t.Name) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("invalid tool name %q (letters, digits, '.', '_' and '-' only)", t.Name)}
	}

	switch {
	case t.Repo != "" && len(t.URLs) > 0:
		return &ValidationError{Field: "repo", Message: "repo and urls are mutually exclusive"}
	case t.Repo == "" && len(t.URLs) == 0:
		return &ValidationError{Message: "either repo or urls is required"}
	}

	if t.Repo != "" && !repoPattern.MatchString(t.Repo) {
		return &ValidationError{Field: "repo", Message: fmt.Sprintf("invalid repository %q (expected owner/repo)", t.Repo)}
	}

	if err := validateURLMap(t.URLs); err != nil {
		return err
	}

	if t.TagRegex != "" {
		if _, err := FullMatch(t.TagRegex); err != nil {
			return &ValidationError{Field: "tag_regex", Message: err.Error()}
		}
	}
	if t.AssetRegex != "" {
		if _, err := FullMatch(t.AssetRegex); err != nil {
			return &ValidationError{Field: "asset_regex", Message: err.Error()}
		}
	}

	if _, err := version.ParseAliasMode(string(t.AliasMode)); err != nil {
		return &ValidationError{Field: "aliases", Message: err.Error()}
	}

	if err := validateRules("tag_mappings", t.TagMappings, FullMatch, false); err != nil {
		return err
	}
	if len(t.ArtifactTypes) == 0 {
		return &ValidationError{Field: "artifact_types", Message: "at least one rule is required"}
	}
	if err := validateRules("artifact_types", t.ArtifactTypes, FullMatchFold, true); err != nil {
		return err
	}

	for i, rule := range t.ExtraProperties {
		field := fmt.Sprintf("extra_properties[%d]", i+1)
		if _, err := FullMatch(rule.Pattern); err != nil {
			return &ValidationError{Field: field, Message: err.Error()}
		}
		if len(rule.Properties) == 0 {
			return &ValidationError{Field: field, Message: "properties cannot be empty"}
		}
		for _, p := range rule.Properties {
			if p.Key == "" {
				return &ValidationError{Field: field, Message: "property name cannot be empty"}
			}
		}
	}

	return nil
}

// RepoOwnerAndName splits Repo into owner and repository name.
func (t *Tool) RepoOwnerAndName() (owner, name string) {
	owner, name, _ = strings.Cut(t.Repo, "/")
	return owner, name
}

func validateRules(field string, rules []Rule, compile func(string) (*regexp.Regexp, error), valueRequired bool) error {
	for i, rule := range rules {
		name := fmt.Sprintf("%s[%d]", field, i+1)
		if _, err := compile(rule.Pattern); err != nil {
			return &ValidationError{Field: name, Message: err.Error()}
		}
		if valueRequired && rule.Value == "" {
			return &ValidationError{Field: name, Message: "value cannot be empty"}
		}
	}
	return nil
}

func validateURLMap(m URLMap) error {
	seen := make(map[string]bool, len(m))
	for _, entry := range m {
		field := fmt.Sprintf("urls[%q]", entry.Version)
		if entry.Version == "" {
			return &ValidationError{Field: "urls", Message: "version cannot be empty"}
		}
		if seen[entry.Version] {
			return &ValidationError{Field: field, Message: "duplicate version"}
		}
		seen[entry.Version] = true

		if len(entry.URLs) == 0 {
			return &ValidationError{Field: field, Message: "at least one URL is required"}
		}
		for _, raw := range entry.URLs {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
				return &ValidationError{Field: field, Message: fmt.Sprintf("invalid download URL %q (absolute http(s) URL required)", raw)}
			}
		}
	}
	return nil
}

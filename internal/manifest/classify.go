package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
)

// ClassificationError reports an artifact that could not be given a unique
// type within its version.
type ClassificationError struct {
	Version  string
	URL      string
	OtherURL string // set when another artifact already has the type
	Type     string
	Message  string
}

func (e *ClassificationError) Error() string {
	if e.OtherURL != "" {
		return fmt.Sprintf("version %s: %s %q: %s and %s", e.Version, e.Message, e.Type, e.OtherURL, e.URL)
	}
	return fmt.Sprintf("version %s: %s for %s", e.Version, e.Message, e.URL)
}

type typeRule struct {
	pattern *regexp.Regexp
	name    string
}

// Classifier maps download URLs to artifact types.
type Classifier struct {
	rules []typeRule
}

// NewClassifier compiles ordered (pattern, type) rules. Patterns match the
// whole lower-cased URL, ignoring case.
func NewClassifier(rules []config.Rule) (*Classifier, error) {
	c := &Classifier{}
	for i, rule := range rules {
		re, err := config.FullMatchFold(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile artifact type %d: %w", i+1, err)
		}
		c.rules = append(c.rules, typeRule{pattern: re, name: rule.Value})
	}
	return c, nil
}

// Classify returns the type of the first rule matching downloadURL.
func (c *Classifier) Classify(downloadURL string) (string, bool) {
	lower := strings.ToLower(downloadURL)
	for _, rule := range c.rules {
		if rule.pattern.MatchString(lower) {
			return rule.name, true
		}
	}
	return "", false
}

package config

import (
	"fmt"
	"regexp"
)

// FullMatch compiles pattern so that it only matches complete inputs.
func FullMatch(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// FullMatchFold is FullMatch ignoring case.
func FullMatchFold(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

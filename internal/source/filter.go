package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
)

// leadingV matches tags such as "v1.2.3" but not "very-new".
var leadingV = regexp.MustCompile(`^v(\d.*)$`)

type mapping struct {
	pattern     *regexp.Regexp
	replacement string
}

// filters holds the compiled release selection rules of a tool. A nil
// pattern accepts everything.
type filters struct {
	tag      *regexp.Regexp
	asset    *regexp.Regexp
	mappings []mapping
}

func newFilters(tool config.Tool) (*filters, error) {
	f := &filters{}

	var err error
	if tool.TagRegex != "" {
		if f.tag, err = config.FullMatch(tool.TagRegex); err != nil {
			return nil, fmt.Errorf("compile tag filter: %w", err)
		}
	}
	if tool.AssetRegex != "" {
		if f.asset, err = config.FullMatch(tool.AssetRegex); err != nil {
			return nil, fmt.Errorf("compile asset filter: %w", err)
		}
	}

	for i, rule := range tool.TagMappings {
		re, err := config.FullMatch(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile tag mapping %d: %w", i+1, err)
		}
		f.mappings = append(f.mappings, mapping{pattern: re, replacement: rule.Value})
	}

	return f, nil
}

// acceptTag reports whether the unmapped tag passes the tag filter.
func (f *filters) acceptTag(tag string) bool {
	return f.tag == nil || f.tag.MatchString(tag)
}

// acceptAsset reports whether an asset name passes the asset filter.
func (f *filters) acceptAsset(name string) bool {
	return f.asset == nil || f.asset.MatchString(name)
}

// version derives the version string of a tag. The first mapping whose
// pattern matches the whole tag rewrites it; a leading "v" followed by a
// digit is then dropped. The result may be empty.
func (f *filters) version(tag string) string {
	mapped := tag
	for _, m := range f.mappings {
		match := m.pattern.FindStringSubmatchIndex(tag)
		if match == nil {
			continue
		}
		mapped = expand(m.replacement, tag, match)
		break
	}
	return leadingV.ReplaceAllString(mapped, "$1")
}

// expand substitutes a replacement template against a match the way
// JavaScript's String.prototype.replace does: $1..$99 insert capture
// groups (two digits only when that group exists), $& the whole match,
// $` and $' the text around it and $$ a dollar sign. A reference to a
// group that does not exist is kept literally.
func expand(template, s string, match []int) string {
	groups := len(match)/2 - 1
	group := func(n int) string {
		if match[2*n] < 0 {
			return ""
		}
		return s[match[2*n]:match[2*n+1]]
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}

		next := template[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(s[match[0]:match[1]])
			i++
		case next == '`':
			b.WriteString(s[:match[0]])
			i++
		case next == '\'':
			b.WriteString(s[match[1]:])
			i++
		case isDigit(next):
			n := int(next - '0')
			width := 1
			if i+2 < len(template) && isDigit(template[i+2]) {
				if nn := n*10 + int(template[i+2]-'0'); nn >= 1 && nn <= groups {
					n, width = nn, 2
				}
			}
			if n < 1 || n > groups {
				b.WriteByte(c)
				continue
			}
			b.WriteString(group(n))
			i += width
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

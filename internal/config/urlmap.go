package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"
)

const urlMapSchemaURL = "https://github.com/ZebulonRouseFrantzich/tooldef/schemas/urlmap.schema.json"

// urlMapSchema describes a static URL map: an object whose keys are
// version strings and whose values are one URL or a non-empty list of URLs.
const urlMapSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "minProperties": 1,
  "propertyNames": { "minLength": 1 },
  "additionalProperties": {
    "oneOf": [
      { "$ref": "#/$defs/url" },
      { "type": "array", "minItems": 1, "items": { "$ref": "#/$defs/url" } }
    ]
  },
  "$defs": {
    "url": { "type": "string", "pattern": "^https?://[^/\\s]+" }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func urlMapValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(urlMapSchema))
		if err != nil {
			compileErr = fmt.Errorf("decode URL map schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(urlMapSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add URL map schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(urlMapSchemaURL)
	})
	return compiledSchema, compileErr
}

// ParseURLMap decodes a static URL map from JSON. Comments and trailing
// commas are accepted. Versions are returned sorted.
func ParseURLMap(data []byte) (URLMap, error) {
	schema, err := urlMapValidator()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonc.ToJSON(data)))
	if err != nil {
		return nil, &ParseError{Message: "invalid URL map JSON", Detail: err.Error()}
	}
	if err := schema.Validate(instance); err != nil {
		return nil, &ValidationError{Field: "urls", Message: err.Error()}
	}

	// The schema guarantees the shape below.
	object := instance.(map[string]any)
	m := make(URLMap, 0, len(object))
	for ver, value := range object {
		entry := VersionURLs{Version: ver}
		switch v := value.(type) {
		case string:
			entry.URLs = []string{v}
		case []any:
			for _, u := range v {
				entry.URLs = append(entry.URLs, u.(string))
			}
		}
		m = append(m, entry)
	}

	sort.Slice(m, func(i, j int) bool { return m[i].Version < m[j].Version })
	return m, nil
}

// ReadURLMap reads a static URL map file.
func ReadURLMap(path string) (URLMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URL map: %w", err)
	}
	m, err := ParseURLMap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

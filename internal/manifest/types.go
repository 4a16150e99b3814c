package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the manifest format written by this package.
const SchemaVersion = "1.1"

// Document is a complete manifest.
type Document struct {
	SchemaVersion string    `yaml:"schema_version"`
	Versions      []Version `yaml:"versions"`
}

// Version is one published version. Fields are emitted in declaration
// order.
type Version struct {
	Version         string     `yaml:"version"`
	Aliases         []string   `yaml:"aliases"`
	Stable          bool       `yaml:"stable"`
	Binaries        Binaries   `yaml:"binaries"`
	ExtraProperties Properties `yaml:"extraProperties,omitempty"`
}

// Binary is one artifact of a version, keyed by its type in the manifest.
type Binary struct {
	Type        string `yaml:"-"`
	Name        string `yaml:"name"`
	DownloadURL string `yaml:"downloadUrl"`
	SHA256      string `yaml:"sha256"`
	RSASHA256   string `yaml:"rsa_sha256"`
}

// Binaries is an ordered mapping from artifact type to Binary.
type Binaries []Binary

// Property is a single extra property.
type Property struct {
	Key   string
	Value string
}

// Properties is an ordered string mapping.
type Properties []Property

// MarshalYAML encodes the binaries as a mapping that keeps slice order.
func (b Binaries) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, binary := range b {
		value := &yaml.Node{}
		if err := value.Encode(binary); err != nil {
			return nil, fmt.Errorf("encode binary %s: %w", binary.Type, err)
		}
		node.Content = append(node.Content, stringNode(binary.Type), value)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping of binaries in document order.
func (b *Binaries) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: binaries must be a mapping", value.Line)
	}

	var result Binaries
	for i := 0; i+1 < len(value.Content); i += 2 {
		var binary Binary
		if err := value.Content[i+1].Decode(&binary); err != nil {
			return fmt.Errorf("decode binary %s: %w", value.Content[i].Value, err)
		}
		binary.Type = value.Content[i].Value
		result = append(result, binary)
	}
	*b = result
	return nil
}

// MarshalYAML encodes the properties as a mapping that keeps slice order.
func (p Properties) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, property := range p {
		node.Content = append(node.Content, stringNode(property.Key), stringNode(property.Value))
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping of scalar properties in document order.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: extraProperties must be a mapping", value.Line)
	}

	var result Properties
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: property %s must be a scalar", val.Line, key.Value)
		}
		result = append(result, Property{Key: key.Value, Value: val.Value})
	}
	*p = result
	return nil
}

// set assigns key, keeping the position of an existing key.
func (p *Properties) set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: value})
}

// stringNode always encodes as a YAML string, quoting values such as "1.0"
// or "true" that would otherwise read back as another type.
func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

package rules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pelletier/go-toml/v2"
)

// LoadFile reads a rules overlay from path. YAML, JSON and TOML are accepted,
// picked by extension. The content is checked against the applicability table.
func LoadFile(path string) (RuleSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read rules file %s: %w", path, err)
	}
	return Parse(content, filepath.Ext(path))
}

// Parse decodes a rules overlay. ext selects the format and defaults to YAML.
func Parse(content []byte, ext string) (RuleSet, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return RuleSet{}, nil
	}
	var raw map[string]any
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(content, &raw)
	default:
		// json is a subset of yaml
		err = yaml.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to parse rules: %w", err)
	}
	if raw == nil {
		return RuleSet{}, nil
	}

	if err = Validate(raw); err != nil {
		return nil, err
	}

	rs := make(RuleSet, len(raw))
	for entity, v := range raw {
		fields, _ := v.(map[string]any)
		rule := make(map[string]bool, len(fields))
		for k, b := range fields {
			rule[k], _ = b.(bool)
		}
		rs[entity] = rule
	}
	return rs, nil
}

// Merge overlays overrides on base. Only keys present in overrides change.
// base is not modified.
func Merge(base, overrides RuleSet) (RuleSet, error) {
	merged := make(RuleSet, len(base))
	for entity, rule := range base {
		copied := make(map[string]bool, len(rule))
		for k, v := range rule {
			copied[k] = v
		}
		merged[entity] = copied
	}
	if err := mergo.Merge(&merged, overrides, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("unable to merge rules: %w", err)
	}
	return merged, nil
}

var resolvedSchema *jsonschema.Resolved

// Schema returns the JSON schema that a rules overlay must satisfy.
func Schema() ([]byte, error) {
	properties := make(map[string]any, len(applicableTo))
	for entity, keys := range applicableTo {
		fields := make(map[string]any, len(keys))
		for _, k := range keys {
			fields[k] = map[string]any{"type": "boolean"}
		}
		properties[entity] = map[string]any{
			"type":                 "object",
			"properties":           fields,
			"additionalProperties": false,
		}
	}
	return json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	})
}

// Validate checks a decoded overlay against Schema.
func Validate(raw map[string]any) error {
	if resolvedSchema == nil {
		schemaBytes, err := Schema()
		if err != nil {
			return fmt.Errorf("build rules schema: %w", err)
		}
		s := jsonschema.Schema{}
		if err = s.UnmarshalJSON(schemaBytes); err != nil {
			return fmt.Errorf("unmarshal rules schema: %w", err)
		}
		resolvedSchema, err = s.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return fmt.Errorf("resolve rules schema: %w", err)
		}
	}
	if err := resolvedSchema.Validate(raw); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	return nil
}

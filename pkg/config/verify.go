package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// It checks that every config key is known to the schema and that numeric minimums hold.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]any
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	defs, _ := schema["$defs"].(map[string]any)
	root := resolveRef(schema, defs)
	return verifyObject("", configMap, root, defs)
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

func verifyObject(path string, obj map[string]any, schema, defs map[string]any) error {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		return nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field := strings.TrimPrefix(path+"."+k, ".")
		propRaw, ok := props[k]
		if !ok {
			return fmt.Errorf("unknown field %s", field)
		}
		prop, _ := propRaw.(map[string]any)
		prop = resolveRef(prop, defs)

		switch v := obj[k].(type) {
		case map[string]any:
			if err := verifyObject(field, v, prop, defs); err != nil {
				return err
			}
		case float64:
			if minVal, ok := prop["minimum"].(float64); ok && v < minVal {
				return fmt.Errorf("%s must be at least %v, got %v", field, minVal, v)
			}
		}
	}
	return nil
}

func resolveRef(schema, defs map[string]any) map[string]any {
	ref, ok := schema["$ref"].(string)
	if !ok {
		return schema
	}
	name := strings.TrimPrefix(ref, "#/$defs/")
	if def, ok := defs[name].(map[string]any); ok {
		return def
	}
	return schema
}

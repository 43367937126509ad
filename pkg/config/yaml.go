package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLFile reads and parses a YAML config file into a Dict, following
// cuemby-warren/cmd/warren/apply.go's read-then-unmarshal idiom. Each
// top-level scalar becomes a Value; nested maps/sequences are rejected,
// since the core config dictionary is flat (spec §6).
func LoadYAMLFile(path string) (Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML bytes into a Dict.
func ParseYAML(data []byte) (Dict, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	d := make(Dict, len(raw))
	for k, v := range raw {
		value, err := fromYAML(k, v)
		if err != nil {
			return nil, err
		}
		d[k] = value
	}
	return d, nil
}

func fromYAML(key string, v interface{}) (Value, error) {
	switch t := v.(type) {
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	default:
		return Value{}, fmt.Errorf("config: key %q: unsupported value type %T (dictionary is flat scalars only)", key, v)
	}
}

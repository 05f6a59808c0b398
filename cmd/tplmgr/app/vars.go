package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadVars reads the optional YAML vars file and applies key=value overrides on top.
func loadVars(path string, sets []string) (map[string]any, error) {
	vars := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read vars file: %w", err)
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("failed to parse vars file: %w", err)
		}
		if vars == nil {
			vars = make(map[string]any)
		}
	}
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid `--set` %q: want key=value", kv)
		}
		if err := setPath(vars, strings.Split(key, "."), value); err != nil {
			return nil, fmt.Errorf("invalid `--set` %q: %w", kv, err)
		}
	}
	return vars, nil
}

func setPath(vars map[string]any, path []string, value string) error {
	cur := vars
	for _, seg := range path[:len(path)-1] {
		if seg == "" {
			return fmt.Errorf("empty key segment")
		}
		next, ok := cur[seg]
		if !ok {
			m := make(map[string]any)
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is not a map", seg)
		}
		cur = m
	}
	last := path[len(path)-1]
	if last == "" {
		return fmt.Errorf("empty key segment")
	}
	cur[last] = value
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// extendsKey is the layer field naming base layers; it is consumed during
// resolution and stripped from the effective configuration.
const extendsKey = "extends"

// devduckPathKey is the entry-layer field the namespaced reference root is
// derived from.
const devduckPathKey = "devduck_path"

// envKey is the layer field declaring required environment variables; entries
// get their declaring layer stamped on them during resolution.
const envKey = "env"

// Layer is one configuration file's parsed content before merge.
// A Layer never mutates after load; merging always produces new maps.
type Layer struct {
	// Path is the absolute location the layer was read from.
	Path string
	// Raw is the parsed YAML tree. Top level is always a string-keyed map.
	Raw map[string]any
}

// LoadLayer reads and parses one YAML layer. An empty file yields an empty
// tree. A missing file wraps ErrConfigNotFound.
func LoadLayer(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config layer '%s': %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config layer '%s': %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	return &Layer{Path: path, Raw: raw}, nil
}

// Extends returns the layer's ordered base references.
func (l *Layer) Extends() []string {
	val, ok := l.Raw[extendsKey]
	if !ok {
		return nil
	}

	items, ok := val.([]any)
	if !ok {
		// A single string is accepted as a one-element list.
		if s, ok := val.(string); ok {
			return []string{s}
		}
		return nil
	}

	refs := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			refs = append(refs, s)
		}
	}
	return refs
}

// DevduckPath returns the layer's devduck_path field, if declared.
func (l *Layer) DevduckPath() string {
	s, _ := l.Raw[devduckPathKey].(string)
	return s
}

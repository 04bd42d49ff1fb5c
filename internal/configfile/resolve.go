// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NamespacePrefix marks an extends reference resolved against the shared
// devduck root instead of the referencing layer's directory.
const NamespacePrefix = "devduck:"

// ExtendsCycleError reports a cycle in the extends graph. Chain lists the
// offending layers in reference order, ending where it started.
type ExtendsCycleError struct {
	Chain []string
}

func (e *ExtendsCycleError) Error() string {
	return fmt.Sprintf("extends cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// Resolve loads the entry layer, follows its extends chain depth-first, and
// deep-merges all reachable layers into one effective configuration.
//
// Merge order for a layer L with extends [r1, r2, ...]: r1's resolved config,
// then r2's merged on top, then L's own fields on top of all bases. A layer
// already fully merged elsewhere in the same resolution (diamond re-use) is a
// no-op; a layer revisited while still being expanded is an ExtendsCycleError
// carrying the exact chain. The extends key itself is stripped from the result.
func Resolve(entryPath string) (*EffectiveConfig, error) {
	merged, err := ResolveRaw(entryPath)
	if err != nil {
		return nil, err
	}
	return DecodeEffective(merged)
}

// ResolveRaw is Resolve without the typed decode step; it returns the fully
// merged tree. Used by `devduck config show` to print the effective
// configuration verbatim.
func ResolveRaw(entryPath string) (map[string]any, error) {
	entryAbs, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry layer path: %w", err)
	}

	entry, err := LoadLayer(entryAbs)
	if err != nil {
		return nil, err
	}

	w := &walker{
		// The namespace root derives from the entry layer only, so every
		// reference in the chain shares one root.
		nsRoot:   namespaceRoot(entry),
		visited:  make(map[string]bool),
		visiting: make(map[string]bool),
	}

	merged, err := w.walk(entryAbs)
	if err != nil {
		return nil, err
	}

	delete(merged, extendsKey)
	return merged, nil
}

// namespaceRoot computes the directory namespaced references resolve against.
func namespaceRoot(entry *Layer) string {
	root := entry.DevduckPath()
	if root == "" {
		return ""
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(filepath.Dir(entry.Path), root)
	}
	return filepath.Join(root, "configs")
}

type walker struct {
	nsRoot   string
	visited  map[string]bool
	visiting map[string]bool
	// stack mirrors visiting in order, for cycle diagnostics.
	stack []string
}

func (w *walker) walk(path string) (map[string]any, error) {
	if w.visited[path] {
		// Diamond re-use: this layer is already part of the merge.
		return map[string]any{}, nil
	}
	if w.visiting[path] {
		return nil, w.cycleError(path)
	}

	w.visiting[path] = true
	w.stack = append(w.stack, path)
	defer func() {
		delete(w.visiting, path)
		w.stack = w.stack[:len(w.stack)-1]
	}()

	layer, err := LoadLayer(path)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	for _, ref := range layer.Extends() {
		refPath, err := w.resolveRef(ref, filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		base, err := w.walk(refPath)
		if err != nil {
			return nil, err
		}
		merged = Merge(merged, base)
	}

	own := make(map[string]any, len(layer.Raw))
	for k, v := range layer.Raw {
		if k == extendsKey {
			continue
		}
		if k == envKey {
			v = stampEnvSources(v, filepath.Base(path))
		}
		own[k] = v
	}
	merged = Merge(merged, own)

	w.visited[path] = true
	return merged, nil
}

// stampEnvSources annotates env declarations with the layer file that declared
// them. Items are copied, never mutated in place, so the parsed layer stays
// pristine. An explicit source already present on a declaration wins.
func stampEnvSources(v any, source string) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		cp := make(map[string]any, len(m)+1)
		for k, val := range m {
			cp[k] = val
		}
		if _, has := cp["source"]; !has {
			cp["source"] = source
		}
		out[i] = cp
	}
	return out
}

// resolveRef turns an extends reference into an absolute layer path:
// namespaced references resolve against the shared root, absolute references
// pass through, and everything else is relative to the referencing layer's
// directory.
func (w *walker) resolveRef(ref, baseDir string) (string, error) {
	if name, ok := strings.CutPrefix(ref, NamespacePrefix); ok {
		if w.nsRoot == "" {
			return "", fmt.Errorf("%w: reference %q requires devduck_path on the entry layer", ErrConfigNotFound, ref)
		}
		return filepath.Join(w.nsRoot, name), nil
	}
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(baseDir, ref), nil
}

// cycleError builds the chain from the first visit of path to the revisit.
func (w *walker) cycleError(path string) error {
	start := 0
	for i, p := range w.stack {
		if p == path {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(w.stack)-start+1)
	chain = append(chain, w.stack[start:]...)
	chain = append(chain, path)
	return &ExtendsCycleError{Chain: chain}
}

// SPDX-License-Identifier: MPL-2.0

package configfile

// identityKeys maps array field names to the item key that carries identity.
// Arrays under these names merge by concatenation plus de-duplication: a later
// item with the same identity replaces the earlier one in place, keeping the
// earlier occurrence's position. Arrays under any other name are replaced
// wholesale by the overriding layer.
var identityKeys = map[string]string{
	"projects":   "src",
	"checks":     "name",
	"env":        "name",
	"repos":      "url",
	"mcpServers": "name",
}

// Merge deep-merges override on top of base and returns a new map; neither
// input is mutated. Objects merge key-by-key recursively, arrays follow the
// identityKeys rule, and every other type is replaced by the override value.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = mergeValue(k, out[k], v)
	}
	return out
}

func mergeValue(field string, base, override any) any {
	switch ov := override.(type) {
	case map[string]any:
		bv, ok := base.(map[string]any)
		if !ok {
			return ov
		}
		return Merge(bv, ov)
	case []any:
		key, hasIdentity := identityKeys[field]
		if !hasIdentity {
			return ov
		}
		bv, ok := base.([]any)
		if !ok {
			bv = nil
		}
		return mergeIdentityArray(bv, ov, key)
	default:
		return override
	}
}

// mergeIdentityArray concatenates base and override, de-duplicating by the
// identity key: the later occurrence wins but stays at the earlier
// occurrence's position (override-in-place, not append). Items without a
// usable identity are appended as-is.
func mergeIdentityArray(base, override []any, key string) []any {
	out := make([]any, 0, len(base)+len(override))
	position := make(map[string]int)

	add := func(item any) {
		id := identityOf(item, key)
		if id == "" {
			out = append(out, item)
			return
		}
		if pos, seen := position[id]; seen {
			out[pos] = item
			return
		}
		position[id] = len(out)
		out = append(out, item)
	}

	for _, item := range base {
		add(item)
	}
	for _, item := range override {
		add(item)
	}
	return out
}

// identityOf extracts an item's identity value. Plain strings are their own
// identity (repos lists may be bare URLs).
func identityOf(item any, key string) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return s
		}
	}
	return ""
}

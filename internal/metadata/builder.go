package metadata

import "sort"

// builder is an insertion-ordered string map. Entry order decides which
// entries survive the 50-pair cap, so it must be deterministic: entries
// carried in from the caller are ordered by key, entries added by the
// pipeline keep insertion order. Overwriting an existing key keeps its
// original position, matching how the settings categories have always
// layered.
type builder struct {
	keys   []string
	values map[string]string
}

// newBuilder seeds a builder with the caller's existing entries, ordered
// by key so repeated invocations over the same input are identical.
func newBuilder(existing map[string]string) *builder {
	b := &builder{values: make(map[string]string, len(existing))}
	keys := make([]string, 0, len(existing))
	for k := range existing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, existing[k])
	}
	return b
}

// Set inserts or overwrites an entry.
func (b *builder) Set(key, value string) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Len returns the number of entries.
func (b *builder) Len() int {
	return len(b.keys)
}

// Each calls fn for every entry in order. Returning false stops iteration.
func (b *builder) Each(fn func(key, value string) bool) {
	for _, k := range b.keys {
		if !fn(k, b.values[k]) {
			return
		}
	}
}

// Map returns the entries as a plain map.
func (b *builder) Map() map[string]string {
	out := make(map[string]string, len(b.keys))
	for _, k := range b.keys {
		out[k] = b.values[k]
	}
	return out
}

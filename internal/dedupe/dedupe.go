// Package dedupe removes repeated records emitted by one logical source.
package dedupe

// ByKey keeps the first occurrence of every key and drops later repeats.
// Items with an empty key are always kept: without an identifier there is
// nothing to compare. The input slice is not modified.
func ByKey[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			out = append(out, it)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

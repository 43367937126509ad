package merge

// String is the built-in merge for plain strings (spec §4.5): defers
// entirely to Default.
func String(old, a, b string) (string, error) {
	return Default(old, a, b)
}

// Counter is the built-in merge for additive counters (spec §4.5):
// old + (a-old) + (b-old), i.e. a+b-old. Never conflicts.
func Counter(old, a, b int64) (int64, error) {
	return old + (a - old) + (b - old), nil
}

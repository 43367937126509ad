// Package config implements spec §6/§9's universal configuration
// dictionary: a tagged ConfigValue union plus typed accessors keyed by a
// descriptor token, deliberately avoiding reflection (spec §9: "use a
// tagged ConfigValue enum plus a typed accessor keyed by a descriptor
// token; strictly avoid runtime reflection"). YAML loading follows
// cuemby-warren/cmd/warren/apply.go's load-then-convert idiom.
package config

// Kind distinguishes the concrete type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
)

// Value is the tagged union of spec §6's "dictionary of named,
// universally-typed values". Construct with String/Bool/Int; read back
// with the Kind-matching As* accessor or, for recognized keys, a Key[T].
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
}

// String wraps a string as a Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool wraps a bool as a Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64 as a Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Kind reports which accessor will succeed.
func (v Value) Kind() Kind { return v.kind }

// AsString returns v's string, or ok=false if v is not a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBool returns v's bool, or ok=false if v is not a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns v's int64, or ok=false if v is not an int.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Dict is the configuration dictionary: named Values, passed between the
// CLI, the backends, and the core's recognized keys below. Additional
// keys beyond root/bare/disk are backend-specific and pass through
// unchanged (spec §6).
type Dict map[string]Value

// Key is a typed descriptor token for one configuration entry: its name,
// default, and how to decode a Value into T. Get never reflects on T; it
// dispatches through the closure supplied at construction (StringKey,
// BoolKey, IntKey), matching spec §9's no-reflection requirement.
type Key[T any] struct {
	Name    string
	Default T
	decode  func(Value) (T, bool)
}

// Get looks up k.Name in d, falling back to k.Default if absent or if
// the stored Value is the wrong kind.
func (k Key[T]) Get(d Dict) T {
	if d == nil {
		return k.Default
	}
	if v, ok := d[k.Name]; ok {
		if t, ok := k.decode(v); ok {
			return t
		}
	}
	return k.Default
}

// StringKey declares a string-valued descriptor token.
func StringKey(name string, def string) Key[string] {
	return Key[string]{Name: name, Default: def, decode: Value.AsString}
}

// BoolKey declares a bool-valued descriptor token.
func BoolKey(name string, def bool) Key[bool] {
	return Key[bool]{Name: name, Default: def, decode: Value.AsBool}
}

// IntKey declares an int64-valued descriptor token.
func IntKey(name string, def int64) Key[int64] {
	return Key[int64]{Name: name, Default: def, decode: Value.AsInt}
}

// Recognized core keys (spec §6).
var (
	// Root is the backing directory for on-disk backends. Empty means
	// absent.
	Root = StringKey("root", "")
	// Bare suppresses working-tree materialisation.
	Bare = BoolKey("bare", true)
	// Disk enables disk-backed watch via listen_dir.
	Disk = BoolKey("disk", false)
	// CacheSize sets the entry capacity of a read-through LRU cache
	// (pkg/cas.CachedStore) placed in front of an on-disk backend. Zero
	// (the default) leaves the backend unwrapped.
	CacheSize = IntKey("cache_size", 0)
)

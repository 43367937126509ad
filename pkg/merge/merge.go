// Package merge implements the three-way merge combinator library
// (spec §4.5): small, composable functions of shape
// merge(old, a, b) -> (v, error), where a non-nil error is always a
// *ConflictError. Grounded on microprolly/pkg/tree/diff.go's technique of
// early-exiting on equal hashes and recursing only into differing
// subtrees — the same shortcut underlies Default and the node merge built
// on top of these combinators in pkg/graph.
package merge

import "fmt"

// ConflictError is returned by a Func when the three values cannot be
// reconciled.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return "merge conflict: " + e.Msg }

// Conflict builds a ConflictError with a formatted message.
func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// Func is a three-way merge function over values of type V.
type Func[V any] func(old, a, b V) (V, error)

// Default implements spec §4.5's default combinator: if a=b return a; if
// a=old return b; if b=old return a; else conflict.
func Default[V comparable](old, a, b V) (V, error) {
	if a == b {
		return a, nil
	}
	if a == old {
		return b, nil
	}
	if b == old {
		return a, nil
	}
	var zero V
	return zero, Conflict("default: all three values differ")
}

// Option lifts a merge over V into one over *V, where nil represents
// absence (spec §4.5): if all three are present, delegates to m; if all
// absent, Ok(absent); else if both sides are equal, takes that value; else
// if exactly one side equals old, takes the other; else conflict.
func Option[V comparable](m Func[V]) Func[*V] {
	return func(old, a, b *V) (*V, error) {
		if old != nil && a != nil && b != nil {
			v, err := m(*old, *a, *b)
			if err != nil {
				return nil, err
			}
			return &v, nil
		}
		if old == nil && a == nil && b == nil {
			return nil, nil
		}
		if optEqual(a, b) {
			return a, nil
		}

		oldEqA := optEqual(old, a)
		oldEqB := optEqual(old, b)
		switch {
		case oldEqA && oldEqB:
			return a, nil
		case oldEqA:
			return b, nil
		case oldEqB:
			return a, nil
		default:
			return nil, Conflict("option: neither side matches old")
		}
	}
}

func optEqual[V comparable](x, y *V) bool {
	if x == nil && y == nil {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	return *x == *y
}

// Pair merges a struct-like pair of values componentwise (spec §4.5's
// pair(m1, m2)). PairOf bundles two values; callers compose Merge to
// apply m1/m2 to the two halves independently.
type PairOf[A, B any] struct {
	First  A
	Second B
}

func Pair[A, B any](m1 Func[A], m2 Func[B]) Func[PairOf[A, B]] {
	return func(old, a, b PairOf[A, B]) (PairOf[A, B], error) {
		first, err := m1(old.First, a.First, b.First)
		if err != nil {
			return PairOf[A, B]{}, err
		}
		second, err := m2(old.Second, a.Second, b.Second)
		if err != nil {
			return PairOf[A, B]{}, err
		}
		return PairOf[A, B]{First: first, Second: second}, nil
	}
}

// AssocList merges two maps key-by-key via option(mV) (spec §4.5's
// assoc_list). The result's key set is the union of all three sides minus
// keys whose merged value is absent. sorted_map is the same combinator
// over an ordered collection; Go maps have no intrinsic order so AssocList
// serves both roles here (ordering is imposed by the caller when needed,
// e.g. pkg/node's Edges()).
func AssocList[K comparable, V comparable](mV Func[V]) Func[map[K]V] {
	opt := Option(mV)
	return func(old, a, b map[K]V) (map[K]V, error) {
		keys := make(map[K]struct{})
		for k := range old {
			keys[k] = struct{}{}
		}
		for k := range a {
			keys[k] = struct{}{}
		}
		for k := range b {
			keys[k] = struct{}{}
		}

		out := make(map[K]V, len(keys))
		for k := range keys {
			oldV := lookupPtr(old, k)
			aV := lookupPtr(a, k)
			bV := lookupPtr(b, k)
			merged, err := opt(oldV, aV, bV)
			if err != nil {
				return nil, Conflict("assoc_list[%v]: %s", k, err)
			}
			if merged != nil {
				out[k] = *merged
			}
		}
		return out, nil
	}
}

// SortedMap is an alias for AssocList: the combinator is identical over a
// Go map, the "sorted" distinction in the source only affects iteration
// order during serialization, which pkg/node already imposes via Edges().
func SortedMap[K comparable, V comparable](mV Func[V]) Func[map[K]V] {
	return AssocList[K, V](mV)
}

func lookupPtr[K comparable, V any](m map[K]V, k K) *V {
	if m == nil {
		return nil
	}
	v, ok := m[k]
	if !ok {
		return nil
	}
	return &v
}

// Sequence tries each merge function in order, returning the first
// non-conflicting result (spec §4.5's sequence([m1,...,mn])).
func Sequence[V any](ms ...Func[V]) Func[V] {
	return func(old, a, b V) (V, error) {
		var lastErr error
		for _, m := range ms {
			v, err := m(old, a, b)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}
		var zero V
		if lastErr == nil {
			lastErr = Conflict("sequence: no merge functions supplied")
		}
		return zero, lastErr
	}
}

// Bijection ports a merge function through an invertible mapping: values
// of type A are mapped to B, merged there, and mapped back. A failing
// inverse (fInv returning an error) is treated as conflict (spec §4.5's
// bijection(m, f, f⁻¹), "partial inverses treated as conflict").
func Bijection[A, B any](m Func[B], f func(A) (B, error), fInv func(B) (A, error)) Func[A] {
	return func(old, a, b A) (A, error) {
		var zero A
		oldB, err := f(old)
		if err != nil {
			return zero, Conflict("bijection: forward map of old failed: %s", err)
		}
		aB, err := f(a)
		if err != nil {
			return zero, Conflict("bijection: forward map of a failed: %s", err)
		}
		bB, err := f(b)
		if err != nil {
			return zero, Conflict("bijection: forward map of b failed: %s", err)
		}
		mergedB, err := m(oldB, aB, bB)
		if err != nil {
			return zero, err
		}
		result, err := fInv(mergedB)
		if err != nil {
			return zero, Conflict("bijection: inverse map failed: %s", err)
		}
		return result, nil
	}
}

// Apply is the lazy/recursive combinator (spec §4.5's apply(λ→m)), used to
// tie the knot for recursive node merges: the thunk is evaluated once per
// invocation rather than at composition time, so it may reference a merge
// function that is still being constructed (e.g. "merge this node the same
// way, recursively").
func Apply[V any](thunk func() Func[V]) Func[V] {
	return func(old, a, b V) (V, error) {
		return thunk()(old, a, b)
	}
}

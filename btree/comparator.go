package btree

// Comparator is the minimum capability every stored value type must
// provide: a strict weak order. Equality,
// less-or-equal and greater-or-equal are all derivable from two Less
// calls when a comparator does not implement the optional richer
// interfaces below.
type Comparator[V any] interface {
	Less(a, b V) bool
}

// EqComparator is an optional capability: a comparator that can test
// equality more cheaply than two Less calls (e.g. an integer key).
type EqComparator[V any] interface {
	Comparator[V]
	Eq(a, b V) bool
}

// LeqComparator is an optional capability exposing <=.
type LeqComparator[V any] interface {
	Comparator[V]
	Leq(a, b V) bool
}

// GeqComparator is an optional capability exposing >=.
type GeqComparator[V any] interface {
	Comparator[V]
	Geq(a, b V) bool
}

// TransparentComparator marks a comparator as supporting heterogeneous
// lookup: comparing a stored V against some other, cheaper-to-construct
// key type K without materializing a V first. FindKey uses this when
// present.
type TransparentComparator[V any, K any] interface {
	Comparator[V]
	LessKey(a V, k K) bool
	KeyLess(k K, b V) bool
}

// resolvedOrder bundles a comparator's capabilities, resolved once per Tree
// (at construction), not per comparison: a single type-assertion chain up
// front. Each comparison is still an indirect call, through the Comparator
// interface for less and through a function value for eq, leq and geq.
type resolvedOrder[V any] struct {
	less Comparator[V]
	eq   func(a, b V) bool
	leq  func(a, b V) bool
	geq  func(a, b V) bool
}

func resolveOrder[V any](cmp Comparator[V]) resolvedOrder[V] {
	r := resolvedOrder[V]{less: cmp}

	if eqc, ok := cmp.(EqComparator[V]); ok {
		r.eq = eqc.Eq
	} else {
		r.eq = func(a, b V) bool { return !cmp.Less(a, b) && !cmp.Less(b, a) }
	}

	if leqc, ok := cmp.(LeqComparator[V]); ok {
		r.leq = leqc.Leq
	} else {
		r.leq = func(a, b V) bool { return !cmp.Less(b, a) }
	}

	if geqc, ok := cmp.(GeqComparator[V]); ok {
		r.geq = geqc.Geq
	} else {
		r.geq = func(a, b V) bool { return !cmp.Less(a, b) }
	}

	return r
}

func (r resolvedOrder[V]) Less(a, b V) bool { return r.less.Less(a, b) }
func (r resolvedOrder[V]) Eq(a, b V) bool   { return r.eq(a, b) }
func (r resolvedOrder[V]) Leq(a, b V) bool  { return r.leq(a, b) }
func (r resolvedOrder[V]) Geq(a, b V) bool  { return r.geq(a, b) }

// Uint64Comparator orders uint64 values numerically.
type Uint64Comparator struct{}

func (Uint64Comparator) Less(a, b uint64) bool { return a < b }
func (Uint64Comparator) Eq(a, b uint64) bool   { return a == b }
func (Uint64Comparator) Leq(a, b uint64) bool  { return a <= b }
func (Uint64Comparator) Geq(a, b uint64) bool  { return a >= b }

// Int64Comparator orders int64 values numerically.
type Int64Comparator struct{}

func (Int64Comparator) Less(a, b int64) bool { return a < b }
func (Int64Comparator) Eq(a, b int64) bool   { return a == b }
func (Int64Comparator) Leq(a, b int64) bool  { return a <= b }
func (Int64Comparator) Geq(a, b int64) bool  { return a >= b }

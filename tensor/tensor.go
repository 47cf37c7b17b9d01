// Package tensor implements the evaluated-tensor wrapper described in the
// core design: a value-typed guarantee that a lazily-built array has been
// forced to concrete values before it crosses a package boundary.
package tensor

import "github.com/cpmech/gosl/chk"

// Lazy is a not-yet-materialized computation over a flat buffer. Backends
// that defer work (expression graphs, batched kernels) implement this and
// hand the result to Evaluating at the point the graph must be forced.
type Lazy interface {
	Eval() []float64
}

// funcLazy adapts a plain closure to Lazy.
type funcLazy func() []float64

func (f funcLazy) Eval() []float64 { return f() }

// FromFunc wraps a closure as a Lazy source, for callers building a graph
// out of plain functions rather than a dedicated expression type.
func FromFunc(f func() []float64) Lazy { return funcLazy(f) }

// T is an evaluated tensor. Once constructed it never carries a deferred
// computation graph: every constructor in this package forces evaluation
// before returning. T is cheaply copyable (it shares the underlying
// buffer) and safe to pass across goroutine boundaries because nothing
// about it can trigger further lazy work.
type T struct {
	data  []float64
	shape []int
}

// Evaluating forces l and wraps the result as an evaluated tensor of the
// given shape. Panics (via chk.Panic) if the produced buffer's length does
// not match the shape's element count — a shape/data mismatch here is a
// programmer error, not a recoverable one.
func Evaluating(l Lazy, shape []int) T {
	data := l.Eval()
	n := numel(shape)
	if len(data) != n {
		chk.Panic("tensor: evaluated buffer has %d elements; shape %v requires %d", len(data), shape, n)
	}
	return T{data: data, shape: append([]int(nil), shape...)}
}

// FromValues wraps an already-concrete buffer. No evaluation is deferred
// here so there is nothing to force, but the shape is validated the same
// way Evaluating validates it, keeping the invariant uniform.
func FromValues(data []float64, shape []int) T {
	n := numel(shape)
	if len(data) != n {
		chk.Panic("tensor: value buffer has %d elements; shape %v requires %d", len(data), shape, n)
	}
	return T{data: data, shape: append([]int(nil), shape...)}
}

// Zeros returns an evaluated tensor of the given shape, all zero.
func Zeros(shape ...int) T {
	return FromValues(make([]float64, numel(shape)), shape)
}

// Ones returns an evaluated tensor of the given shape, all one.
func Ones(shape ...int) T {
	data := make([]float64, numel(shape))
	for i := range data {
		data[i] = 1
	}
	return FromValues(data, shape)
}

// Batch forces many Lazy sources at once, returning one evaluated tensor
// per source in the same order. Grouping the forcing point like this is
// what lets a backend schedule the batch as one kernel launch instead of
// N separate ones; from the caller's side the result is indistinguishable
// from calling Evaluating in a loop.
func Batch(ls []Lazy, shapes [][]int) []T {
	if len(ls) != len(shapes) {
		chk.Panic("tensor: Batch got %d lazies but %d shapes", len(ls), len(shapes))
	}
	out := make([]T, len(ls))
	for i, l := range ls {
		out[i] = Evaluating(l, shapes[i])
	}
	return out
}

// Value returns the raw backing slice. Callers must not retain a mutable
// alias across a subsequent mutation of the tensor unless they intend to
// share state deliberately — T has value semantics by convention, not by
// the type system forcing a copy on every access.
func (t T) Value() []float64 { return t.data }

// Shape returns the tensor's dimensions.
func (t T) Shape() []int { return t.shape }

// Ndim returns the tensor's rank.
func (t T) Ndim() int { return len(t.shape) }

// Dtype reports the element type. The backend here is always float64;
// the method exists so callers written against a richer backend compile
// unchanged against this one.
func (t T) Dtype() string { return "float64" }

// Len returns the number of cells when the tensor is 1-D (the common case
// in this module: per-variable profile arrays and per-face coefficients).
func (t T) Len() int { return len(t.data) }

// At returns element i of a 1-D tensor.
func (t T) At(i int) float64 { return t.data[i] }

func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// File: core/mem/arena.go
// Package mem implements the fixed-capacity containers backing the
// connection engine: a malloc-once arena, a growable array, and an
// offset-addressed slot pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// None of the containers in this package are safe for concurrent mutation.
// One worker owns its containers end-to-end; a multi-worker deployment runs
// independent instances.

package mem

// Arena is a fixed-size, allocate-once element store. Resizing replaces the
// backing storage wholesale; it is not a growth-preserving resize. Workers
// size an Arena once at start and carve per-connection scratch regions out
// of it, keeping the request hot path free of heap allocation.
type Arena[T any] struct {
	elems []T
}

// Resize discards any prior contents and allocates exactly n zero-valued
// elements. Returns false on an unsatisfiable size, leaving the arena
// untouched. Callers must not assume retained contents on success.
func (a *Arena[T]) Resize(n int) bool {
	if n < 0 {
		return false
	}
	a.elems = make([]T, n)
	return true
}

// Data exposes the raw backing span.
func (a *Arena[T]) Data() []T { return a.elems }

// Len returns the current element count.
func (a *Arena[T]) Len() int { return len(a.elems) }

// At returns a pointer to element i.
func (a *Arena[T]) At(i int) *T { return &a.elems[i] }

// Slice returns the subrange [from, to) of the backing span.
func (a *Arena[T]) Slice(from, to int) []T { return a.elems[from:to] }

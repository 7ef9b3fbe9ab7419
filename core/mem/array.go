// File: core/mem/array.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mem

// Array is a growable sequence with an explicit reserve/push split, so hot
// paths can batch one Reserve ahead of many unchecked pushes. Truncation via
// PopBack never releases capacity.
type Array[T any] struct {
	elems []T // len(elems) is the capacity; the zeroed tail is pre-constructed
	count int
}

// Reserve ensures capacity for at least n elements. A no-op success when the
// current capacity already suffices; otherwise the backing storage is
// reallocated with amortized doubling and the newly exposed tail is
// zero-initialized. On failure existing contents and capacity are untouched.
// Reallocation moves the storage: any slice previously taken via Data is
// invalidated.
func (a *Array[T]) Reserve(n int) bool {
	if n < 0 {
		return false
	}
	if n <= len(a.elems) {
		return true
	}
	grown := 2 * len(a.elems)
	if grown < n {
		grown = n
	}
	elems := make([]T, grown)
	copy(elems, a.elems[:a.count])
	a.elems = elems
	return true
}

// PushBackReserved appends one element. The caller must have reserved
// capacity for it beforehand; this is not checked.
func (a *Array[T]) PushBackReserved(v T) {
	a.elems[a.count] = v
	a.count++
}

// PopBack truncates the logical length by n without releasing memory.
func (a *Array[T]) PopBack(n int) { a.count -= n }

// AppendN reserves and bulk-copies src onto the end of the array.
func (a *Array[T]) AppendN(src []T) bool {
	if !a.Reserve(a.count + len(src)) {
		return false
	}
	copy(a.elems[a.count:], src)
	a.count += len(src)
	return true
}

// Data returns the live element span. Invalidated by the next Reserve that
// actually grows.
func (a *Array[T]) Data() []T { return a.elems[:a.count] }

// Len returns the logical element count.
func (a *Array[T]) Len() int { return a.count }

// Cap returns the reserved capacity.
func (a *Array[T]) Cap() int { return len(a.elems) }

// At returns a pointer to element i.
func (a *Array[T]) At(i int) *T { return &a.elems[i] }

// Reset drops all elements and releases the backing storage.
func (a *Array[T]) Reset() {
	a.elems = nil
	a.count = 0
}

// File: core/mem/slotpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool hands out stable integer offsets into a contiguous backing store
// instead of raw pointers, so connection handles stay valid and compact
// across pool mutation and can be stored in protocol state.

package mem

// Pool is a fixed-capacity arena with an embedded free-offset stack.
// Allocation and release are O(1). The pool never grows after Reserve;
// exhaustion is a recoverable, caller-visible condition, typically answered
// by refusing a new connection.
type Pool[T any] struct {
	elems []T
	free  []int
}

// Reserve allocates one contiguous region holding n elements plus n free
// offsets. All n offsets start free. Returns false on an unsatisfiable size
// with no partial mutation.
func (p *Pool[T]) Reserve(n int) bool {
	if n < 0 {
		return false
	}
	elems := make([]T, n)
	free := make([]int, n)
	for i := range free {
		free[i] = i
	}
	p.elems = elems
	p.free = free
	return true
}

// Alloc pops the top of the free-offset stack. The second result is false
// when the pool is exhausted. The most-recently-released offset is reused
// first.
func (p *Pool[T]) Alloc() (int, bool) {
	if len(p.free) == 0 {
		return -1, false
	}
	off := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return off, true
}

// Release pushes an offset back onto the free stack. The caller must not
// release an offset not currently allocated from this pool, and must not
// release twice; neither is checked.
func (p *Pool[T]) Release(off int) {
	p.free = append(p.free, off)
}

// At maps an offset back to its element. The pointer is stable for the
// element's lifetime in the pool.
func (p *Pool[T]) At(off int) *T { return &p.elems[off] }

// Free returns the number of unallocated slots.
func (p *Pool[T]) Free() int { return len(p.free) }

// Cap returns the fixed pool capacity.
func (p *Pool[T]) Cap() int { return len(p.elems) }

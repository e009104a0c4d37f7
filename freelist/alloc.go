// File: freelist/alloc.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral slab allocation. Concrete allocators are selected at
// runtime through platform-specific factories in separate files.

package freelist

// Allocator provides zeroed, pointer-aligned memory regions for shard
// slabs. node is a locality hint (the shard index the slab will serve);
// implementations may ignore it.
type Allocator interface {
	Alloc(size, node int) ([]byte, error)
	Free(buf []byte)
}

// HeapAllocator serves slabs from the Go heap. Free is a no-op: the
// garbage collector reclaims the slab once the pool drops its reference.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(size, node int) ([]byte, error) {
	return make([]byte, size), nil
}

func (HeapAllocator) Free([]byte) {}

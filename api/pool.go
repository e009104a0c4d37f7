// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs consumed by collaborators of the freelist:
// a generic acquire/release surface independent of the intrusive core.

package api

// ObjectPool provides generic pooling of reusable objects.
//
// The lock-free freelist core and the test doubles under fake/ both satisfy
// this interface, so collaborators can be written against ObjectPool and
// exercised without a real pool.
type ObjectPool[T any] interface {
	// Get returns an available instance from pool.
	// The zero value of T signals an empty pool.
	Get() T

	// Put returns an instance for reuse.
	Put(obj T)
}

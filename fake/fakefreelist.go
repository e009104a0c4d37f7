// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides trivial stub pools for testing collaborators
// without the lock-free core.
package fake

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-freelist/api"
)

// Freelist is an unsynchronized FIFO object pool double. Unlike the real
// pool it hands objects back in order, which makes collaborator tests
// deterministic. Not safe for concurrent use.
type Freelist[T any] struct {
	q *queue.Queue
}

// NewFreelist returns an empty fake pool.
func NewFreelist[T any]() *Freelist[T] {
	return &Freelist[T]{q: queue.New()}
}

// Get returns the oldest pooled object, or the zero value of T when empty.
func (f *Freelist[T]) Get() T {
	if f.q.Length() == 0 {
		var zero T
		return zero
	}
	return f.q.Remove().(T)
}

// Put appends an object to the pool.
func (f *Freelist[T]) Put(obj T) {
	f.q.Add(obj)
}

// Len reports how many objects the fake currently holds.
func (f *Freelist[T]) Len() int { return f.q.Length() }

var _ api.ObjectPool[int] = (*Freelist[int])(nil)

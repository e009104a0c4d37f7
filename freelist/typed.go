// File: freelist/typed.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package freelist

import (
	"reflect"
	"unsafe"

	"github.com/momentics/hioload-freelist/api"
)

// TypedPool is a generic facade over Pool for callers working with
// ordinary Go structs rather than carved raw memory. T must embed Node as
// its first field; this is verified at construction. The pool keeps the
// backing array of objects referenced, so the GC contract of Node is
// satisfied without caller effort.
type TypedPool[T any] struct {
	pool  *Pool
	items []T
}

// NewTypedPool allocates capacity objects of type T and seeds the pool
// with them. Options are passed through to New.
func NewTypedPool[T any](capacity int, opts ...Option) (*TypedPool[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct || rt.NumField() == 0 ||
		rt.Field(0).Type != reflect.TypeOf((*Node)(nil)).Elem() || rt.Field(0).Offset != 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: typed pool element must embed freelist.Node as its first field").
			WithContext("type", rt.String())
	}
	p, err := New(0, 0, opts...)
	if err != nil {
		return nil, err
	}
	tp := &TypedPool[T]{pool: p, items: make([]T, capacity)}
	for i := range tp.items {
		if err := p.Add((*Node)(unsafe.Pointer(&tp.items[i]))); err != nil {
			p.Close(nil)
			return nil, err
		}
	}
	return tp, nil
}

// Get returns a free object, or nil when the pool is empty.
func (tp *TypedPool[T]) Get() *T {
	return (*T)(unsafe.Pointer(tp.pool.Pop()))
}

// Put returns an object for reuse. Putting nil is a no-op.
func (tp *TypedPool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	tp.pool.Push((*Node)(unsafe.Pointer(obj)))
}

// Stats returns the underlying pool counters.
func (tp *TypedPool[T]) Stats() Stats { return tp.pool.Stats() }

// Close tears the pool down. Objects stay owned by the TypedPool's backing
// array, so no release callback is needed.
func (tp *TypedPool[T]) Close() {
	tp.pool.Close(nil)
	tp.items = nil
}

type typedProbe struct{ Node }

// Ensure compile-time interface compliance.
var _ api.ObjectPool[*typedProbe] = (*TypedPool[typedProbe])(nil)

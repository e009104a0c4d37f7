//go:build !linux && !windows
// +build !linux,!windows

// File: freelist/alloc_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for platforms without a dedicated slab allocator.

package freelist

func newPlatformAllocator() Allocator { return HeapAllocator{} }

//go:build linux
// +build linux

// File: freelist/alloc_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux slab allocator backed by anonymous mappings.

package freelist

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapAllocator obtains slabs from anonymous private mappings. Pages come
// back zeroed from the kernel and stay off the Go heap, so large pools do
// not inflate GC scan work. First-touch NUMA policy places the pages near
// the shard that seeds them.
type mmapAllocator struct{}

func (mmapAllocator) Alloc(size, node int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("freelist: mmap %d bytes: %w", size, err)
	}
	return buf, nil
}

func (mmapAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munmap(buf)
}

func newPlatformAllocator() Allocator { return mmapAllocator{} }

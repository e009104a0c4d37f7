//go:build windows
// +build windows

// File: freelist/alloc_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows slab allocator backed by VirtualAlloc.

package freelist

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kern32           = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAlloc = kern32.NewProc("VirtualAlloc")
	procVirtualFree  = kern32.NewProc("VirtualFree")
)

// virtualAllocator obtains zeroed page-backed slabs outside the Go heap.
type virtualAllocator struct{}

func (virtualAllocator) Alloc(size, node int) ([]byte, error) {
	addr, _, err := procVirtualAlloc.Call(
		0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT,
		windows.PAGE_READWRITE,
	)
	if addr == 0 {
		return nil, fmt.Errorf("freelist: VirtualAlloc %d bytes: %w", size, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func (virtualAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_, _, _ = procVirtualFree.Call(
		uintptr(unsafe.Pointer(&buf[0])), 0, windows.MEM_RELEASE)
}

func newPlatformAllocator() Allocator { return virtualAllocator{} }

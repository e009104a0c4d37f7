//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation on top of sched_setaffinity/getcpu. Pure Go, no CGO.

package affinity

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform sets thread affinity to a given CPU for Linux.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(%d): %w", cpuID, err)
	}
	return nil
}

// currentCPUPlatform reads the CPU of the calling thread via getcpu(2).
// x/sys ships only the syscall number, so this goes through RawSyscall;
// vDSO-less but allocation-free, which the hot-path locator needs.
func currentCPUPlatform() int {
	var cpu, node int
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)),
		uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return -1
	}
	return cpu
}

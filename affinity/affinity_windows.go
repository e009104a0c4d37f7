//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation of thread affinity and CPU identity.

package affinity

import (
	"golang.org/x/sys/windows"
)

var (
	kern32                        = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask     = kern32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread          = kern32.NewProc("GetCurrentThread")
	procGetCurrentProcessorNumber = kern32.NewProc("GetCurrentProcessorNumber")
)

// setAffinityPlatform sets thread affinity to a given CPU for Windows.
func setAffinityPlatform(cpuID int) error {
	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << cpuID
	ret, _, err := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return err
	}
	return nil
}

// currentCPUPlatform reads the CPU of the calling thread.
func currentCPUPlatform() int {
	cpu, _, _ := procGetCurrentProcessorNumber.Call()
	return int(cpu)
}

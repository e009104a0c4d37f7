// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU identity and thread affinity. Platform-specific
// implementations are located in separate files (affinity_linux.go,
// affinity_windows.go, etc.) guarded by build tags.

package affinity

import "github.com/momentics/hioload-freelist/api"

// SetAffinity pins the current OS thread to a given logical CPU/core on
// supported platforms. On unsupported platforms returns an error. Callers
// should hold runtime.LockOSThread for the pin to be meaningful.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// CurrentCPU returns the logical CPU the calling thread is running on, or -1
// when the platform cannot tell. The result is advisory: the scheduler may
// migrate the thread right after the call, which is fine for shard-locality
// decisions.
func CurrentCPU() int {
	return currentCPUPlatform()
}

// Thread is the api.Affinity view of this package.
type Thread struct{}

func (Thread) Pin(cpuID int) error { return SetAffinity(cpuID) }
func (Thread) Current() int        { return CurrentCPU() }

var _ api.Affinity = Thread{}

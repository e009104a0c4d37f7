// Package api
// Author: momentics
//
// CPU affinity and shard-locality definitions.

package api

// ShardLocator reports the home shard index of the calling execution
// context. Implementations must be safe for concurrent use and must never
// block; a negative result means "unknown" and lets the pool fall back to
// shard zero.
type ShardLocator func() int

// Affinity controls execution placement on particular CPUs.
type Affinity interface {
	// Pin locks the current OS thread to a CPU.
	Pin(cpuID int) error
	// Current returns the CPU the calling thread runs on, or -1.
	Current() int
}

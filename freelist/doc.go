// Package freelist
// Author: momentics <momentics@gmail.com>
//
// Lock-free, sharded object pool for high-intensity allocation paths.
// Objects are pre-allocated once and recycled through per-shard CAS stacks,
// so the hot path never takes a lock and never touches the allocator.
// A packed reference count on every node defeats the classic ABA hazard of
// lock-free stacks. See shard.go for the protocol, pool.go for lifecycle.
package freelist

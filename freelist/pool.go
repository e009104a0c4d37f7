// File: freelist/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool lifecycle: capacity distribution over shards, slab pre-allocation,
// batched population from caller buffers, scattered addition of caller
// objects, and teardown with ownership classification.

package freelist

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-freelist/affinity"
	"github.com/momentics/hioload-freelist/api"
)

const ptrAlign = int(unsafe.Sizeof(uintptr(0)))

// ReleaseFunc is invoked by Close once per drained object, and once more
// for the whole external buffer when one was registered. caller is true
// when the memory is individually owned by the caller (added via Add, or
// the buffer itself); objects inside pool slabs or inside the registered
// buffer are reported with caller=false so they are not freed one by one.
// element is false only for the final whole-buffer invocation.
type ReleaseFunc func(obj unsafe.Pointer, caller, element bool)

// Pool is a fixed-capacity, lock-free object pool partitioned into shards.
// Capacity only grows (Populate, Add) until Close; the hot-path Push/Pop
// never allocates, never blocks and is safe from nested contexts.
type Pool struct {
	objSize int
	nobjs   int
	shards  []shard
	slabs   [][]byte // one pre-allocated region per shard, nil entries allowed
	buffer  []byte   // externally supplied region from Populate
	locate  api.ShardLocator
	alloc   Allocator
	objInit func(*Node) error

	pushes atomic.Uint64
	pops   atomic.Uint64
	misses atomic.Uint64

	nshards int // construction-time knob, fixed after New
}

// Stats aggregates pool accounting counters.
type Stats struct {
	Objects    int
	ObjectSize int
	Shards     int
	Pushes     uint64
	Pops       uint64
	Misses     uint64
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithShards overrides the shard count (default: runtime.NumCPU()).
func WithShards(n int) Option {
	return func(p *Pool) { p.nshards = n }
}

// WithLocator overrides the home-shard locator. The default asks
// affinity.CurrentCPU; results are reduced modulo the shard count.
func WithLocator(loc api.ShardLocator) Option {
	return func(p *Pool) { p.locate = loc }
}

// WithAllocator overrides the slab allocator (default: platform allocator,
// anonymous mappings on Linux/Windows, Go heap elsewhere).
func WithAllocator(a Allocator) Option {
	return func(p *Pool) { p.alloc = a }
}

// WithObjectInit registers a callback run once per pre-allocated object
// before it is linked into its shard. An error aborts construction and
// unwinds all partial state.
func WithObjectInit(fn func(*Node) error) Option {
	return func(p *Pool) { p.objInit = fn }
}

// New builds a pool of capacity objects of objSize bytes, spread as evenly
// as possible across the shards (the first capacity%shards shards receive
// one extra). Every shard's share lives in one contiguous zeroed slab.
//
// objSize zero skips pre-allocation entirely: the pool starts empty and is
// filled later through Populate or Add.
func New(capacity, objSize int, opts ...Option) (*Pool, error) {
	p := &Pool{
		objSize: objSize,
		locate:  affinity.CurrentCPU,
		alloc:   newPlatformAllocator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.nshards <= 0 {
		p.nshards = runtime.NumCPU()
	}
	if capacity < 0 || objSize < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: negative capacity or object size")
	}
	if objSize > 0 && objSize < NodeSize {
		return nil, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: object size cannot hold a node header").
			WithContext("objsz", objSize).WithContext("min", NodeSize)
	}

	p.shards = make([]shard, p.nshards)
	p.slabs = make([][]byte, p.nshards)
	if objSize == 0 || capacity == 0 {
		return p, nil
	}

	stride := alignUp(objSize, ptrAlign)
	for i := range p.shards {
		n := capacity / p.nshards
		if i < capacity%p.nshards {
			n++
		}
		if n == 0 {
			continue
		}
		slab, err := p.alloc.Alloc(n*stride, i)
		if err != nil {
			p.release()
			return nil, api.NewError(api.ErrCodeAllocFailed,
				"freelist: shard slab allocation failed").
				WithContext("shard", i).WithContext("cause", err.Error())
		}
		p.slabs[i] = slab
		for j := 0; j < n; j++ {
			node := (*Node)(unsafe.Pointer(&slab[j*stride]))
			if p.objInit != nil {
				if err := p.objInit(node); err != nil {
					p.release()
					return nil, fmt.Errorf("freelist: object init: %w", err)
				}
			}
			p.shards[i].seed(node)
			p.nobjs++
		}
	}
	return p, nil
}

// Populate slices an externally supplied buffer into objects of objSize
// bytes and adds them to the pool, balancing shard populations. The buffer
// stays owned by the caller; Close reports it back in one final callback.
// Returns the number of objects produced.
//
// Only one buffer may ever be registered, the object size must match the
// pool's established size, and both the buffer base and objSize must be
// pointer aligned. Like Add, Populate is setup-phase only.
//
// If objInit fails mid-way, objects initialized before the failure remain
// in the pool but the buffer is not registered.
func (p *Pool) Populate(buf []byte, objSize int, objInit func(*Node) error) (int, error) {
	switch {
	case p.shards == nil:
		return 0, api.NewError(api.ErrCodeInvalidArgument, "freelist: pool is closed")
	case p.buffer != nil:
		return 0, api.NewError(api.ErrCodeAlreadyExists,
			"freelist: external buffer already registered")
	case len(buf) == 0 || objSize <= 0 || objSize > len(buf):
		return 0, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: buffer cannot hold a single object").
			WithContext("objsz", objSize).WithContext("bufsz", len(buf))
	case objSize < NodeSize:
		return 0, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: object size cannot hold a node header").
			WithContext("objsz", objSize).WithContext("min", NodeSize)
	case p.objSize != 0 && p.objSize != objSize:
		return 0, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: object size must be consistent pool-wide").
			WithContext("objsz", objSize).WithContext("established", p.objSize)
	case uintptr(unsafe.Pointer(&buf[0]))%uintptr(ptrAlign) != 0 || objSize%ptrAlign != 0:
		return 0, api.NewError(api.ErrCodeInvalidArgument,
			"freelist: buffer and object size must be pointer aligned")
	}

	added := 0
	for used := 0; used+objSize <= len(buf); used += objSize {
		node := (*Node)(unsafe.Pointer(&buf[used]))
		if objInit != nil {
			if err := objInit(node); err != nil {
				return added, fmt.Errorf("freelist: object init: %w", err)
			}
		}
		p.addScattered(node)
		added++
	}
	p.buffer = buf
	p.objSize = objSize
	return added, nil
}

// Add contributes one caller-owned object to the shard with the fewest
// objects, balanced by the running total. Setup-phase only: it performs no
// synchronization and must not race with Push/Pop traffic. The caller must
// keep the object reachable until Close (see Node).
func (p *Pool) Add(n *Node) error {
	if n == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "freelist: nil node")
	}
	if p.shards == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "freelist: pool is closed")
	}
	p.addScattered(n)
	return nil
}

func (p *Pool) addScattered(n *Node) {
	p.shards[p.nobjs%len(p.shards)].seed(n)
	p.nobjs++
}

// Push returns an object to the home shard of the calling context. It
// never fails, never blocks, and may be invoked from nested contexts (a
// Pop interrupted by a handler that itself pushes and pops).
//
// The node must not currently be on any shard list; pushing a free node is
// a contract violation with undefined behavior.
func (p *Pool) Push(n *Node) {
	p.shards[p.home()].push(n)
	p.pushes.Add(1)
}

// Pop takes an object out of the pool, trying the calling context's home
// shard first and then scanning the remaining shards round-robin. nil
// means every shard was empty when probed; that is a normal outcome, not
// an error. Objects always return to the releasing context's shard, so
// occupancy can drift under skewed load.
func (p *Pool) Pop() *Node {
	home := p.home()
	for i := 0; i < len(p.shards); i++ {
		if n := p.shards[home].pop(); n != nil {
			p.pops.Add(1)
			return n
		}
		if home++; home >= len(p.shards) {
			home = 0
		}
	}
	p.misses.Add(1)
	return nil
}

func (p *Pool) home() int {
	if h := p.locate(); h >= 0 {
		return h % len(p.shards)
	}
	return 0
}

// FromSlab reports whether obj points into one of the pool's pre-allocated
// shard slabs.
func (p *Pool) FromSlab(obj unsafe.Pointer) bool {
	if obj == nil {
		return false
	}
	a := uintptr(obj)
	for _, slab := range p.slabs {
		if len(slab) == 0 {
			continue
		}
		base := uintptr(unsafe.Pointer(&slab[0]))
		if a >= base && a < base+uintptr(len(slab)) {
			return true
		}
	}
	return false
}

// FromBuffer reports whether obj points into the externally supplied
// buffer registered by Populate.
func (p *Pool) FromBuffer(obj unsafe.Pointer) bool {
	if obj == nil || len(p.buffer) == 0 {
		return false
	}
	a := uintptr(obj)
	base := uintptr(unsafe.Pointer(&p.buffer[0]))
	return a >= base && a < base+uintptr(len(p.buffer))
}

// Stats returns a snapshot of the pool accounting counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Objects:    p.nobjs,
		ObjectSize: p.objSize,
		Shards:     len(p.shards),
		Pushes:     p.pushes.Load(),
		Pops:       p.pops.Load(),
		Misses:     p.misses.Load(),
	}
}

// Close drains every shard through the release callback and frees all
// pool-owned memory. See ReleaseFunc for the classification flags. Close
// assumes exclusive access: no other pool operation may be in flight.
// With a nil callback the pool memory is released without draining.
func (p *Pool) Close(release ReleaseFunc) {
	if p.shards == nil {
		return
	}
	if release != nil {
		for i := range p.shards {
			for {
				n := p.shards[i].pop()
				if n == nil {
					break
				}
				obj := unsafe.Pointer(n)
				caller := !p.FromBuffer(obj) && !p.FromSlab(obj)
				release(obj, caller, true)
			}
		}
		if p.buffer != nil {
			release(unsafe.Pointer(&p.buffer[0]), true, false)
		}
	}
	p.buffer = nil
	p.release()
	p.shards = nil
	p.nobjs = 0
	p.objSize = 0
}

// release frees every allocated slab. Shared by Close and the unwinding
// paths of New.
func (p *Pool) release() {
	for i := range p.slabs {
		if p.slabs[i] != nil {
			p.alloc.Free(p.slabs[i])
			p.slabs[i] = nil
		}
	}
	p.slabs = nil
}

// RoundRobin returns a locator spreading contexts over n shards with an
// atomic counter. Useful on platforms without CPU identity (see
// affinity.CurrentCPU) and in tests that need a deterministic spread.
func RoundRobin(n int) api.ShardLocator {
	ctr := new(atomic.Uint64)
	return func() int { return int((ctr.Add(1) - 1) % uint64(n)) }
}

func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

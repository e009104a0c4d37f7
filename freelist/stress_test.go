// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// stress_test.go — Property-based concurrent tests: conservation, no
// duplication, ABA resistance, empty semantics.
package freelist_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-freelist/freelist"
)

// checkoutMap tracks which goroutine believes it owns each node. A failed
// claim means two pops returned the same node without a push in between.
type checkoutMap map[*freelist.Node]*atomic.Int32

func drainAll(p *freelist.Pool) []*freelist.Node {
	var nodes []*freelist.Node
	for {
		n := p.Pop()
		if n == nil {
			return nodes
		}
		nodes = append(nodes, n)
	}
}

func TestPool_PropertyConservation(t *testing.T) {
	const (
		objects = 64
		workers = 8
		rounds  = 5000
	)
	p, err := freelist.New(objects, 32,
		freelist.WithShards(4),
		freelist.WithLocator(freelist.RoundRobin(4)))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	owners := make(checkoutMap, objects)
	for _, n := range drainAll(p) {
		owners[n] = new(atomic.Int32)
		p.Push(n)
	}
	if len(owners) != objects {
		t.Fatalf("initial drain found %d objects, want %d", len(owners), objects)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				n := p.Pop()
				if n == nil {
					runtime.Gosched()
					continue
				}
				flag, known := owners[n]
				if !known {
					t.Error("pop returned a node that was never in the pool")
					return
				}
				if !flag.CompareAndSwap(0, 1) {
					t.Error("two concurrent pops returned the same node")
					return
				}
				flag.Store(0)
				p.Push(n)
			}
		}()
	}
	wg.Wait()

	// Quiescent: every object must be reachable again, exactly once.
	final := drainAll(p)
	if len(final) != objects {
		t.Fatalf("conservation violated: %d objects after stress, want %d", len(final), objects)
	}
	seen := make(map[*freelist.Node]bool, objects)
	for _, n := range final {
		if seen[n] {
			t.Fatal("final drain returned a duplicate node")
		}
		seen[n] = true
	}
}

// TestPool_PropertyABA hammers a single shard with a tiny population so
// that pops permanently race pushes of the same nodes. The stale-head CAS
// with transient references must keep the list intact.
func TestPool_PropertyABA(t *testing.T) {
	const (
		objects = 2
		workers = 4
		rounds  = 20000
	)
	p, err := freelist.New(objects, 32,
		freelist.WithShards(1),
		freelist.WithLocator(func() int { return 0 }))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if n := p.Pop(); n != nil {
					p.Push(n)
				}
			}
		}()
	}
	wg.Wait()

	final := drainAll(p)
	if len(final) != objects {
		t.Fatalf("list corrupted: %d objects survive, want %d", len(final), objects)
	}
	if final[0] == final[1] {
		t.Fatal("final drain returned the same node twice")
	}
}

func TestPool_EmptyNeverBlocks(t *testing.T) {
	p, err := freelist.New(0, 0, freelist.WithShards(4),
		freelist.WithLocator(freelist.RoundRobin(4)))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if p.Pop() != nil {
					t.Error("pop on an empty pool returned a node")
					return
				}
			}
		}()
	}
	wg.Wait()

	if p.Stats().Misses == 0 {
		t.Error("expected misses to be accounted")
	}
}

// TestPool_StressSkewedHome drives all pushes to one shard while pops use
// shifting homes, exercising the sibling-shard scan and occupancy drift.
func TestPool_StressSkewedHome(t *testing.T) {
	const objects = 32
	var turn atomic.Uint64
	p, err := freelist.New(objects, 32,
		freelist.WithShards(4),
		freelist.WithLocator(func() int { return int(turn.Load()) % 4 }))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				turn.Add(1)
				if n := p.Pop(); n != nil {
					p.Push(n)
				}
			}
		}()
	}
	wg.Wait()

	if got := len(drainAll(p)); got != objects {
		t.Fatalf("expected %d objects after skewed stress, got %d", objects, got)
	}
}

// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// shard_test.go — White-box tests for the per-shard CAS stack protocol.
package freelist

import "testing"

func TestShard_SeedPopOrder(t *testing.T) {
	var s shard
	nodes := make([]*Node, 4)
	for i := range nodes {
		nodes[i] = new(Node)
		s.seed(nodes[i])
	}
	// seed builds a stack: last seeded pops first
	for i := len(nodes) - 1; i >= 0; i-- {
		n := s.pop()
		if n != nodes[i] {
			t.Fatalf("pop %d: got %p, want %p", i, n, nodes[i])
		}
	}
	if s.pop() != nil {
		t.Error("expected empty shard after draining")
	}
}

func TestShard_PushPopRoundTrip(t *testing.T) {
	var s shard
	n := new(Node)
	s.push(n)
	if got := s.pop(); got != n {
		t.Fatalf("got %p, want %p", got, n)
	}
	if n.refs.Load() != 0 {
		t.Errorf("checked-out refcount = %#x, want 0", n.refs.Load())
	}
	if s.pop() != nil {
		t.Error("expected empty shard")
	}
}

func TestShard_RefBaselines(t *testing.T) {
	var s shard
	n := new(Node)
	s.push(n)
	// Linked and quiescent: exactly the list's own reference, pending bit clear.
	if n.refs.Load() != 1 {
		t.Errorf("linked refcount = %#x, want 1", n.refs.Load())
	}
	if got := s.pop(); got != n {
		t.Fatalf("got %p, want %p", got, n)
	}
	if n.refs.Load() != 0 {
		t.Errorf("checked-out refcount = %#x, want 0", n.refs.Load())
	}
}

// TestShard_DeferredInsert drives the push path while a simulated reader
// holds a transient reference: the push must not link the node, and the
// reader's release must complete the insertion.
func TestShard_DeferredInsert(t *testing.T) {
	var s shard
	n := new(Node)

	n.refs.Add(1) // simulated in-flight reader
	s.push(n)

	if s.head.Load() != nil {
		t.Fatal("node linked while a reader still held a reference")
	}
	if n.refs.Load() != refsOnList+1 {
		t.Fatalf("refs = %#x, want on-list bit plus one reader", n.refs.Load())
	}

	// Reader releases: the decrement that lands on the on-list baseline
	// performs the deferred insert, same as the pop slow path.
	if n.refs.Add(^uint32(0)) == refsOnList {
		s.insert(n)
	}

	if got := s.pop(); got != n {
		t.Fatalf("deferred insert lost the node: got %p, want %p", got, n)
	}
}

func TestPool_AddBalancesShards(t *testing.T) {
	p, err := New(0, 0, WithShards(4), WithLocator(func() int { return 0 }))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	nodes := make([]*Node, 10)
	for i := range nodes {
		nodes[i] = new(Node)
		if err := p.Add(nodes[i]); err != nil {
			t.Fatal(err)
		}
	}

	want := []int{3, 3, 2, 2} // 10 objects round-robined over 4 shards
	for i := range p.shards {
		got := 0
		for n := p.shards[i].head.Load(); n != nil; n = n.next.Load() {
			got++
		}
		if got != want[i] {
			t.Errorf("shard %d holds %d objects, want %d", i, got, want[i])
		}
	}
}

func TestPool_CapacityDistribution(t *testing.T) {
	// 10 objects over 4 shards: the first two shards take one extra.
	p, err := New(10, 32, WithShards(4), WithAllocator(HeapAllocator{}))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(nil)

	want := []int{3, 3, 2, 2}
	for i := range p.shards {
		got := 0
		for n := p.shards[i].head.Load(); n != nil; n = n.next.Load() {
			got++
		}
		if got != want[i] {
			t.Errorf("shard %d holds %d objects, want %d", i, got, want[i])
		}
	}
}

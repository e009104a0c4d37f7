// File: freelist/shard.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-shard lock-free stack. The protocol follows the CAS-based free list
// with reference-counted ABA protection: a pop first takes a transient
// reference on the candidate head, so a concurrent push of the same node
// cannot relink it while the popper still dereferences it. A push that
// observes outstanding readers defers the actual linking to whichever
// reader drops the count back to the on-list baseline.

package freelist

import (
	"sync/atomic"
	"unsafe"
)

const cacheLinePad = 64

// shard is one independent free-list partition. The head pointer is padded
// out to a cache line to keep neighbouring shards from false sharing.
type shard struct {
	head atomic.Pointer[Node]
	_    [cacheLinePad - unsafe.Sizeof(atomic.Pointer[Node]{})]byte
}

// seed links a node during single-threaded setup. No synchronization: only
// init/populate/add paths may call it, before any push/pop traffic.
func (s *shard) seed(n *Node) {
	n.refs.Store(1)
	n.next.Store(s.head.Load())
	s.head.Store(n)
}

// push returns a node to this shard. The caller guarantees the node is not
// currently on any shard list, so the on-list bit is clear and a plain
// fetch-add can set it. If the previous count was zero there are no
// outstanding readers and we link the node ourselves; otherwise the last
// reader to drop its reference performs the deferred insert (see pop).
func (s *shard) push(n *Node) {
	if n.refs.Add(refsOnList) == refsOnList {
		s.insert(n)
	}
}

// insert links a node whose refcount has drained to "on-list, no readers".
// Only one goroutine can be here per node at a time, so writing next is
// safe. Once refs is published as 1 a concurrent pop may take a reference
// again; if our CAS of head then fails we may only retry while no such
// reader showed up, otherwise the insert is handed off to the last reader.
func (s *shard) insert(n *Node) {
	head := s.head.Load()
	for {
		n.next.Store(head)
		n.refs.Store(1)
		if s.head.CompareAndSwap(head, n) {
			return
		}
		if n.refs.Add(refsOnList-1) != refsOnList {
			// A reader holds the node; its release will re-insert.
			return
		}
		head = s.head.Load()
	}
}

// pop removes and returns one node, or nil when the shard is empty.
//
// A candidate is only dereferenced after its refcount was raised from a
// non-zero value: zero means the node is draining towards a deferred
// insert and its next link must not be trusted. With the transient
// reference held, a successful CAS of head proves exclusive removal, and
// the refcount is dropped by two (our reference plus the list's own).
func (s *shard) pop() *Node {
	head := s.head.Load()
	for head != nil {
		prev := head
		refs := head.refs.Load()
		if refs&refsMask == 0 || !head.refs.CompareAndSwap(refs, refs+1) {
			head = s.head.Load()
			continue
		}
		next := head.next.Load()
		if s.head.CompareAndSwap(head, next) {
			head.refs.Add(^uint32(1))
			return head
		}
		// Head changed under us: release the transient reference, and
		// perform the deferred insert if a push is waiting on it.
		if prev.refs.Add(^uint32(0)) == refsOnList {
			s.insert(prev)
		}
		head = s.head.Load()
	}
	return nil
}

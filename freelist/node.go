// File: freelist/node.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package freelist

import (
	"sync/atomic"
	"unsafe"
)

const (
	// refsOnList marks a node whose push is pending: it should be linked
	// as soon as its outstanding transient references drain. A node that
	// is actually linked holds a single plain reference from the list and
	// has the bit clear. The remaining low bits count transient references
	// held by in-flight pops.
	refsOnList uint32 = 1 << 31
	refsMask          = refsOnList - 1
)

// Node is the intrusive header of every pooled object. It must sit at
// offset zero of the object: embed it as the first field of a struct, or
// account for it when carving objects out of raw buffers. The pool links
// objects through the header and never touches the bytes that follow.
//
// The pool stores links in untyped slab memory the garbage collector does
// not scan. Objects contributed with Add must therefore be kept reachable
// by the caller for the lifetime of the pool; TypedPool does this
// automatically.
type Node struct {
	next atomic.Pointer[Node]
	refs atomic.Uint32
}

// NodeSize is the byte size of the intrusive header. Callers carving
// payloads out of raw slab objects find their bytes at this offset.
const NodeSize = int(unsafe.Sizeof(Node{}))

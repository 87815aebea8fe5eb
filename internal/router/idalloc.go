package router

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// IdentAllocator hands out IPv4 identification values for packets this
// router originates (ICMP errors, echo replies). Concurrent frame
// handlers each originate at most one such packet per call, so a single
// atomically-incremented counter — seeded from crypto/rand at startup
// rather than always starting at zero — is sufficient to keep
// concurrent originations from colliding on (src, dst, id) without the
// bookkeeping an allocator that must also reclaim values would need.
type IdentAllocator struct {
	next atomic.Uint32
}

// NewIdentAllocator creates an IdentAllocator seeded with a random
// starting value.
func NewIdentAllocator() *IdentAllocator {
	var seed [4]byte
	_, _ = rand.Read(seed[:]) // crypto/rand.Read on the system CSPRNG never errors in practice.

	a := &IdentAllocator{}
	a.next.Store(binary.BigEndian.Uint32(seed[:]))
	return a
}

// Next returns the next identification value. Values wrap modulo 2^16;
// this router never relies on the field for fragment reassembly (it
// does not fragment), only on every concurrently-originated packet
// getting a distinct value with overwhelming probability.
func (a *IdentAllocator) Next() uint16 {
	return uint16(a.next.Add(1))
}

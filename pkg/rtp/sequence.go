package rtp

import "sync/atomic"

// Sequence is a monotonic, 16-bit-wrapping counter for outgoing data
// packets. It starts at 0 and is incremented before each outbound data
// packet (spec.md §3), the way the teacher's RTPSession advances
// sequenceNumber with atomic.AddUint32 truncated to uint16.
type Sequence struct {
	n atomic.Uint32
}

// Next returns the next sequence number, wrapping at 65536.
func (s *Sequence) Next() uint16 {
	return uint16(s.n.Add(1))
}

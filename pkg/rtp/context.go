package rtp

import "sync/atomic"

// Context is the per-session state attached to a participant. Its last
// sequence number starts as "none" before any packet has been seen from the
// participant. Spec.md requires the first packet from a source to be
// accepted unconditionally, and every uint16 value, including 0, is a valid
// sequence number — hence the extra bit tracked by sequenceSeen rather than
// a reserved sentinel value.
type Context struct {
	Participant *Participant

	lastSequenceNumber uint32 // holds a uint16 once sequenceSeen is set
	sequenceSeen       atomic.Bool

	sentPackets     atomic.Uint64
	sentBytes       atomic.Uint64
	receivedPackets atomic.Uint64
	receivedBytes   atomic.Uint64

	byeReceived  atomic.Bool
	sdesReceived atomic.Bool
}

// NewContext wraps a participant in fresh per-session bookkeeping.
func NewContext(p *Participant) *Context {
	return &Context{Participant: p}
}

// HasSeenSequence reports whether any packet has updated LastSequenceNumber
// yet; spec.md's "last_sequence_number: initial value is none."
func (c *Context) HasSeenSequence() bool {
	return c.sequenceSeen.Load()
}

// LastSequenceNumber returns the highest RTP sequence number seen. Only
// meaningful when HasSeenSequence is true.
func (c *Context) LastSequenceNumber() uint16 {
	return uint16(c.lastSequenceNumber)
}

// UpdateLastSequenceNumber records sn as the most recently seen sequence
// number, as a plain overwrite — no wrap-around or extended-sequence
// tracking, matching the raw integer compare the out-of-order check uses.
func (c *Context) UpdateLastSequenceNumber(sn uint16) {
	atomic.StoreUint32(&c.lastSequenceNumber, uint32(sn))
	c.sequenceSeen.Store(true)
}

// AddSent records n bytes of one outbound packet addressed to this
// participant.
func (c *Context) AddSent(n int) {
	c.sentPackets.Add(1)
	c.sentBytes.Add(uint64(n))
}

// AddReceived records n bytes of one inbound packet from this participant.
func (c *Context) AddReceived(n int) {
	c.receivedPackets.Add(1)
	c.receivedBytes.Add(uint64(n))
}

// SentPackets returns the outbound packet counter since the last reset.
func (c *Context) SentPackets() uint64 { return c.sentPackets.Load() }

// ReceivedPackets returns the inbound packet counter; it is never reset.
func (c *Context) ReceivedPackets() uint64 { return c.receivedPackets.Load() }

// ResetSent zeroes the send counters; RtcpAutomation calls this after
// capturing them into a SenderReport (spec.md §4.5: "resets the context's
// send stats after capture").
func (c *Context) ResetSent() {
	c.sentPackets.Store(0)
	c.sentBytes.Store(0)
}

// ByeReceived reports whether a BYE for this SSRC has been latched.
func (c *Context) ByeReceived() bool { return c.byeReceived.Load() }

// LatchBye sets the BYE flag. It cannot be cleared (spec.md §3 invariant).
func (c *Context) LatchBye() { c.byeReceived.Store(true) }

// SdesReceived reports whether descriptive fields have been latched from SDES.
func (c *Context) SdesReceived() bool { return c.sdesReceived.Load() }

// LatchSdes sets the SDES-received flag, preventing later SDES updates from
// overwriting descriptive fields.
func (c *Context) LatchSdes() { c.sdesReceived.Store(true) }

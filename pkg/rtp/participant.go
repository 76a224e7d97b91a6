package rtp

import (
	"crypto/rand"
	"encoding/binary"
	"net"
)

// Participant is the stable identity of a remote or local source (spec.md
// §3, RtpParticipant). Descriptive fields are populated from SDES and start
// empty.
type Participant struct {
	SSRC uint32

	DataAddress    net.Addr
	ControlAddress net.Addr

	CNAME    string
	Name     string
	Email    string
	Phone    string
	Location string
	Tool     string
	Note     string
}

// NewParticipant builds a bare participant with no descriptive fields set,
// the shape a freshly-discovered remote source has before any SDES arrives.
func NewParticipant(ssrc uint32, dataAddr, controlAddr net.Addr) *Participant {
	return &Participant{SSRC: ssrc, DataAddress: dataAddr, ControlAddress: controlAddr}
}

// ResolveSSRCConflict returns a fresh SSRC distinct from observed, the way
// the original's RtpParticipant.resolveSsrcConflict does: generate random
// candidates until one doesn't collide with the value we were just told
// about. Participant identity/collision heuristics are treated as an
// external collaborator by spec.md §1; this is the default implementation.
func (p *Participant) ResolveSSRCConflict(observed uint32) uint32 {
	for {
		candidate := randomSSRC()
		if candidate != observed && candidate != p.SSRC {
			return candidate
		}
	}
}

// randomSSRC draws a 32-bit value from crypto/rand, mirroring the teacher's
// generateSSRC helper (session.go) rather than using math/rand.
func randomSSRC() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is not recoverable here; return zero,
		// which ResolveSSRCConflict accepts unless it equals the
		// observed or current SSRC, in which case it draws again.
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

// participantFromSDES builds a new Participant out of a chunk describing a
// source never seen on the data channel (spec.md §4.3.2's "create" branch).
// ControlAddress is origin; DataAddress is left nil until data arrives.
func participantFromSDES(origin net.Addr, chunk SDESChunk) *Participant {
	p := &Participant{SSRC: chunk.SSRC, ControlAddress: origin}
	applySDES(p, chunk)
	return p
}

// applySDES copies every non-empty field from chunk onto p, leaving fields
// p already had untouched when chunk's corresponding field is empty.
func applySDES(p *Participant, chunk SDESChunk) {
	if chunk.CNAME != "" {
		p.CNAME = chunk.CNAME
	}
	if chunk.Name != "" {
		p.Name = chunk.Name
	}
	if chunk.Email != "" {
		p.Email = chunk.Email
	}
	if chunk.Phone != "" {
		p.Phone = chunk.Phone
	}
	if chunk.Loc != "" {
		p.Location = chunk.Loc
	}
	if chunk.Tool != "" {
		p.Tool = chunk.Tool
	}
	if chunk.Note != "" {
		p.Note = chunk.Note
	}
}

package rtp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSSRCConflictAvoidsObservedAndCurrent(t *testing.T) {
	p := &Participant{SSRC: 111}
	for i := 0; i < 200; i++ {
		candidate := p.ResolveSSRCConflict(222)
		assert.NotEqual(t, uint32(222), candidate)
		assert.NotEqual(t, uint32(111), candidate)
	}
}

func TestApplySDESOnlyOverwritesNonEmptyFields(t *testing.T) {
	p := &Participant{SSRC: 1, Name: "original", Tool: "keep-me"}
	applySDES(p, SDESChunk{SSRC: 1, CNAME: "cname@host", Name: "updated"})

	assert.Equal(t, "cname@host", p.CNAME)
	assert.Equal(t, "updated", p.Name)
	assert.Equal(t, "keep-me", p.Tool)
}

func TestParticipantFromSDESSetsControlAddressAndFields(t *testing.T) {
	origin := &net.UDPAddr{IP: net.IPv4(203, 0, 113, 1), Port: 5000}
	p := participantFromSDES(origin, SDESChunk{SSRC: 9, CNAME: "a@b"})

	assert.Equal(t, uint32(9), p.SSRC)
	assert.Equal(t, origin, p.ControlAddress)
	assert.Equal(t, "a@b", p.CNAME)
	assert.Nil(t, p.DataAddress)
}

package rtp

import (
	"net"
	"testing"

	"github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJoinCompoundIsEmptyReceiverReportPlusSDES(t *testing.T) {
	a := NewRtcpAutomation("sess-1")
	local := &Participant{SSRC: 77, DataAddress: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}}

	compound := a.BuildJoinCompound(local)
	require.Len(t, compound.Packets, 2)

	assert.Equal(t, KindReceiverReport, compound.Packets[0].Kind)
	assert.Equal(t, uint32(77), compound.Packets[0].ReceiverReport.SSRC)
	assert.Empty(t, compound.Packets[0].ReceiverReport.Reports)

	assert.Equal(t, KindSourceDescription, compound.Packets[1].Kind)
	sdes := compound.Packets[1].SourceDescription
	require.Len(t, sdes.Chunks, 1)
	assert.Equal(t, uint32(77), sdes.Chunks[0].Source)
}

func TestBuildSDESAutoSynthesizesCNAMEAndTool(t *testing.T) {
	a := NewRtcpAutomation("sess-2")
	local := &Participant{SSRC: 1, DataAddress: &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000}}

	sdes := a.buildSDES(local)
	items := sdes.Chunks[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, rtcp.SDESCNAME, items[0].Type)
	assert.Contains(t, items[0].Text, "sess-2")
	assert.Equal(t, rtcp.SDESTool, items[1].Type)
	assert.Equal(t, defaultTool, items[1].Text)
}

func TestBuildSDESHonorsExplicitFieldsInOrder(t *testing.T) {
	a := NewRtcpAutomation("sess-3")
	local := &Participant{
		SSRC:     2,
		CNAME:    "explicit@cname",
		Name:     "Alice",
		Email:    "alice@example.com",
		Phone:    "+1",
		Location: "Earth",
		Tool:     "custom-tool",
		Note:     "hello",
	}

	sdes := a.buildSDES(local)
	items := sdes.Chunks[0].Items
	require.Len(t, items, 7)
	assert.Equal(t, rtcp.SDESCNAME, items[0].Type)
	assert.Equal(t, rtcp.SDESName, items[1].Type)
	assert.Equal(t, rtcp.SDESEmail, items[2].Type)
	assert.Equal(t, rtcp.SDESPhone, items[3].Type)
	assert.Equal(t, rtcp.SDESLocation, items[4].Type)
	assert.Equal(t, rtcp.SDESTool, items[5].Type)
	assert.Equal(t, rtcp.SDESNote, items[6].Type)
}

func TestBuildReportUsesSenderReportWhenSentPacketsNonZero(t *testing.T) {
	a := NewRtcpAutomation("sess-4")
	local := &Participant{SSRC: 1}
	recipient := NewContext(&Participant{SSRC: 2})
	recipient.AddSent(10)
	recipient.AddReceived(3)

	packet := a.buildReport(local, recipient)
	assert.Equal(t, KindSenderReport, packet.Kind)
	require.Len(t, packet.SenderReport.Reports, 1)
	assert.Equal(t, uint32(2), packet.SenderReport.Reports[0].SSRC)
	assert.Equal(t, uint64(0), recipient.SentPackets())
}

func TestBuildReportUsesReceiverReportWhenNoSentPackets(t *testing.T) {
	a := NewRtcpAutomation("sess-5")
	local := &Participant{SSRC: 1}
	recipient := NewContext(&Participant{SSRC: 2})

	packet := a.buildReport(local, recipient)
	assert.Equal(t, KindReceiverReport, packet.Kind)
	assert.Empty(t, packet.ReceiverReport.Reports)
}

func TestBuildLeaveCompoundCarriesMotive(t *testing.T) {
	a := NewRtcpAutomation("sess-6")
	local := &Participant{SSRC: 1}
	recipient := NewContext(&Participant{SSRC: 2})

	compound := a.BuildLeaveCompound(local, recipient, ByeMotiveTerminate)
	require.Len(t, compound.Packets, 3)
	last := compound.Packets[len(compound.Packets)-1]
	assert.Equal(t, KindBye, last.Kind)
	assert.Equal(t, ByeMotiveTerminate, last.Bye.Reason)
	assert.Equal(t, []uint32{1}, last.Bye.Sources)
}

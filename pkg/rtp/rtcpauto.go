package rtp

import (
	"fmt"
	"net"

	"github.com/pion/rtcp"
)

// defaultTool is the fixed version string synthesized into SDES TOOL when
// the local participant hasn't set one, the way the original's VERSION
// constant fills the same slot.
const defaultTool = "efflux_go_1.0"

// Leave-compound BYE motive strings, named constants per the original's two
// distinct literal motives (spec.md §4, "Features recovered from
// original_source/").
const (
	ByeMotiveCollision = "SSRC collision detected; rejoining with new SSRC."
	ByeMotiveTerminate = "Session terminated."
)

// RtcpAutomation builds the join, leave, and SDES compounds the engine
// emits automatically at lifecycle boundaries (spec.md §2 RtcpAutomation,
// §4.5), grounded on AbstractRtpSession.joinSession/leaveSession/
// buildReportPacket/buildSdesPacket.
type RtcpAutomation struct {
	sessionID string
}

// NewRtcpAutomation returns an automation helper scoped to sessionID, used
// only for CNAME auto-synthesis.
func NewRtcpAutomation(sessionID string) *RtcpAutomation {
	return &RtcpAutomation{sessionID: sessionID}
}

// BuildJoinCompound returns "[empty ReceiverReport with sender_ssrc =
// current, SDES packet describing local]" (spec.md §4.5).
func (a *RtcpAutomation) BuildJoinCompound(local *Participant) *CompoundControlPacket {
	rr := &rtcp.ReceiverReport{SSRC: local.SSRC}
	sdes := a.buildSDES(local)
	return &CompoundControlPacket{Packets: []ControlPacket{
		{Kind: KindReceiverReport, ReceiverReport: rr},
		{Kind: KindSourceDescription, SourceDescription: sdes},
	}}
}

// BuildLeaveCompound returns one compound for a single recipient: a
// per-recipient report (SenderReport if the context has sent packets,
// ReceiverReport otherwise), an SDES describing local, and a BYE carrying
// motive (spec.md §4.5).
func (a *RtcpAutomation) BuildLeaveCompound(local *Participant, recipient *Context, motive string) *CompoundControlPacket {
	report := a.buildReport(local, recipient)
	sdes := a.buildSDES(local)
	bye := &rtcp.Goodbye{Sources: []uint32{local.SSRC}, Reason: motive}
	return &CompoundControlPacket{Packets: []ControlPacket{
		report,
		{Kind: KindSourceDescription, SourceDescription: sdes},
		{Kind: KindBye, Bye: bye},
	}}
}

// buildReport returns a SenderReport if recipient.SentPackets() > 0 —
// resetting the send stats after capture, per spec.md §4.5 — or a
// ReceiverReport otherwise. Either carries exactly one ReceptionReport
// block when recipient.ReceivedPackets() > 0; all statistical fields stay
// zero (spec.md §9 open question on report metrics).
func (a *RtcpAutomation) buildReport(local *Participant, recipient *Context) ControlPacket {
	var reports []rtcp.ReceptionReport
	if recipient.ReceivedPackets() > 0 {
		reports = []rtcp.ReceptionReport{{SSRC: recipient.Participant.SSRC}}
	}

	if recipient.SentPackets() > 0 {
		sr := &rtcp.SenderReport{SSRC: local.SSRC, Reports: reports}
		recipient.ResetSent()
		return ControlPacket{Kind: KindSenderReport, SenderReport: sr}
	}
	rr := &rtcp.ReceiverReport{SSRC: local.SSRC, Reports: reports}
	return ControlPacket{Kind: KindReceiverReport, ReceiverReport: rr}
}

// buildSDES assembles a single-chunk SDES packet describing local.
// CNAME and TOOL are auto-synthesized when unset; NAME/EMAIL/PHONE/
// LOCATION/NOTE are included only when set, in that enumeration order
// (spec.md §4.5).
func (a *RtcpAutomation) buildSDES(local *Participant) *rtcp.SourceDescription {
	cname := local.CNAME
	if cname == "" {
		cname = fmt.Sprintf("efflux/%s@%s", a.sessionID, addrString(local.DataAddress))
	}
	tool := local.Tool
	if tool == "" {
		tool = defaultTool
	}

	// Order follows the RtpParticipant field enumeration (spec.md §3):
	// cname, name, email, phone, location, tool, note.
	items := []rtcp.SourceDescriptionItem{
		{Type: rtcp.SDESCNAME, Text: cname},
	}
	if local.Name != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESName, Text: local.Name})
	}
	if local.Email != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESEmail, Text: local.Email})
	}
	if local.Phone != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESPhone, Text: local.Phone})
	}
	if local.Location != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESLocation, Text: local.Location})
	}
	items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESTool, Text: tool})
	if local.Note != "" {
		items = append(items, rtcp.SourceDescriptionItem{Type: rtcp.SDESNote, Text: local.Note})
	}

	return &rtcp.SourceDescription{
		Chunks: []rtcp.SourceDescriptionChunk{
			{Source: local.SSRC, Items: items},
		},
	}
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

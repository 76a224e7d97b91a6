package rtp

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// DataPacket is the engine's view of an RTP data packet (spec.md §6,
// "Packet codec contract"). It carries only the fields the engine sets/reads
// (§3/§4) and converts to and from the pion/rtp wire type with ToWire and
// FromWire — the wire codec itself (Marshal/Unmarshal) is pion/rtp's job,
// not ours.
type DataPacket struct {
	PayloadType    uint8
	SSRC           uint32
	SequenceNumber uint16
	Timestamp      uint32
	Marker         bool
	Payload        []byte
}

// ToWire produces the pion/rtp.Packet this DataPacket describes, ready for
// Marshal by a transport.
func (p *DataPacket) ToWire() *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         p.Marker,
			PayloadType:    p.PayloadType,
			SequenceNumber: p.SequenceNumber,
			Timestamp:      p.Timestamp,
			SSRC:           p.SSRC,
		},
		Payload: p.Payload,
	}
}

// FromWire builds a DataPacket from a decoded pion/rtp.Packet.
func FromWire(pkt *rtp.Packet) *DataPacket {
	return &DataPacket{
		PayloadType:    pkt.PayloadType,
		SSRC:           pkt.SSRC,
		SequenceNumber: pkt.SequenceNumber,
		Timestamp:      pkt.Timestamp,
		Marker:         pkt.Marker,
		Payload:        pkt.Payload,
	}
}

// ControlKind tags the variant carried by a ControlPacket (spec.md §9,
// "model control packets as a tagged variant ... dispatch is a match on the
// tag rather than virtual dispatch").
type ControlKind int

const (
	KindSenderReport ControlKind = iota
	KindReceiverReport
	KindSourceDescription
	KindBye
	KindAppData
	KindUnknown
)

// ControlPacket is one inner packet of a compound RTCP datagram, tagged by
// Kind and carrying exactly one of the typed payloads below.
type ControlPacket struct {
	Kind ControlKind

	SenderReport      *rtcp.SenderReport
	ReceiverReport    *rtcp.ReceiverReport
	SourceDescription *rtcp.SourceDescription
	Bye               *rtcp.Goodbye
	AppData           *AppData
}

// AppData is RFC 3550 §6.7's APP packet. pion/rtcp has no type for it, so it
// is modeled locally — the one gap in an otherwise pion/rtcp-backed control
// codec.
type AppData struct {
	SSRC    uint32
	Name    [4]byte
	SubType uint8
	Data    []byte
}

// DestinationSSRC satisfies rtcp.Packet-shaped callers that want a
// destination list for APP_DATA, mirroring pion/rtcp's own packet types.
func (a *AppData) DestinationSSRC() []uint32 { return []uint32{a.SSRC} }

// CompoundControlPacket is a compound RTCP datagram: a non-empty, ordered
// sequence of inner control packets sharing one UDP datagram (spec.md §6,
// GLOSSARY "Compound control packet").
type CompoundControlPacket struct {
	Packets []ControlPacket
}

// UnmarshalCompound decodes a raw RTCP compound datagram into the engine's
// tagged-variant view. Known packet kinds are decoded with pion/rtcp's own
// types; APP_DATA (RFC 3550 §6.7) has no pion/rtcp type, so this walks the
// compound's fixed RTCP headers by hand to split it into individual packets
// before handing each to pion/rtcp or the local AppData codec — the one
// seam pion/rtcp doesn't cover.
func UnmarshalCompound(data []byte) (*CompoundControlPacket, error) {
	compound := &CompoundControlPacket{}
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("rtcp: truncated header")
		}
		packetType := rtcp.PacketType(data[1])
		lengthWords := binary.BigEndian.Uint16(data[2:4])
		packetLen := (int(lengthWords) + 1) * 4
		if packetLen > len(data) {
			return nil, fmt.Errorf("rtcp: packet length %d exceeds remaining buffer %d", packetLen, len(data))
		}
		raw := data[:packetLen]
		data = data[packetLen:]

		switch packetType {
		case rtcp.TypeSenderReport:
			sr := &rtcp.SenderReport{}
			if err := sr.Unmarshal(raw); err != nil {
				return nil, err
			}
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindSenderReport, SenderReport: sr})
		case rtcp.TypeReceiverReport:
			rr := &rtcp.ReceiverReport{}
			if err := rr.Unmarshal(raw); err != nil {
				return nil, err
			}
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindReceiverReport, ReceiverReport: rr})
		case rtcp.TypeSourceDescription:
			sd := &rtcp.SourceDescription{}
			if err := sd.Unmarshal(raw); err != nil {
				return nil, err
			}
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindSourceDescription, SourceDescription: sd})
		case rtcp.TypeGoodbye:
			bye := &rtcp.Goodbye{}
			if err := bye.Unmarshal(raw); err != nil {
				return nil, err
			}
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindBye, Bye: bye})
		case rtcp.TypeApplicationDefined:
			app, err := unmarshalAppData(raw)
			if err != nil {
				return nil, err
			}
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindAppData, AppData: app})
		default:
			compound.Packets = append(compound.Packets, ControlPacket{Kind: KindUnknown})
		}
	}
	return compound, nil
}

// unmarshalAppData decodes an RFC 3550 §6.7 APP packet: a 4-byte header
// (V/P/subtype, PT=204, length), a 4-byte SSRC, a 4-byte ASCII name, then
// application-dependent data padded to a 32-bit boundary.
func unmarshalAppData(raw []byte) (*AppData, error) {
	if len(raw) < 12 {
		return nil, fmt.Errorf("rtcp: app packet too short")
	}
	app := &AppData{SubType: raw[0] & 0x1f}
	app.SSRC = binary.BigEndian.Uint32(raw[4:8])
	copy(app.Name[:], raw[8:12])
	app.Data = append([]byte(nil), raw[12:]...)
	return app, nil
}

// marshalAppData encodes an AppData packet to its RFC 3550 wire form,
// zero-padding Data to a 32-bit boundary.
func marshalAppData(a *AppData) ([]byte, error) {
	payloadLen := len(a.Data)
	padded := (payloadLen + 3) &^ 3
	total := 12 + padded
	buf := make([]byte, total)
	buf[0] = 0x80 | (a.SubType & 0x1f)
	buf[1] = byte(rtcp.TypeApplicationDefined)
	binary.BigEndian.PutUint16(buf[2:4], uint16(total/4-1))
	binary.BigEndian.PutUint32(buf[4:8], a.SSRC)
	copy(buf[8:12], a.Name[:])
	copy(buf[12:], a.Data)
	return buf, nil
}

// MarshalCompound serializes the inner packets to an RTCP compound
// datagram via pion/rtcp, in order.
func MarshalCompound(compound *CompoundControlPacket) ([]byte, error) {
	var out []byte
	for _, inner := range compound.Packets {
		var pkt rtcp.Packet
		switch inner.Kind {
		case KindSenderReport:
			pkt = inner.SenderReport
		case KindReceiverReport:
			pkt = inner.ReceiverReport
		case KindSourceDescription:
			pkt = inner.SourceDescription
		case KindBye:
			pkt = inner.Bye
		case KindAppData:
			b, err := marshalAppData(inner.AppData)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
			continue
		default:
			continue
		}
		b, err := pkt.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// SDESChunk is one participant's descriptive-field chunk inside a
// SOURCE_DESCRIPTION packet (spec.md §4.3.2, §4.5).
type SDESChunk struct {
	SSRC  uint32
	CNAME string
	Name  string
	Email string
	Phone string
	Loc   string
	Tool  string
	Note  string
}

// ChunkFromWire extracts an SDESChunk from a pion/rtcp source description
// chunk.
func ChunkFromWire(c rtcp.SourceDescriptionChunk) SDESChunk {
	chunk := SDESChunk{SSRC: c.Source}
	for _, item := range c.Items {
		switch item.Type {
		case rtcp.SDESCNAME:
			chunk.CNAME = item.Text
		case rtcp.SDESName:
			chunk.Name = item.Text
		case rtcp.SDESEmail:
			chunk.Email = item.Text
		case rtcp.SDESPhone:
			chunk.Phone = item.Text
		case rtcp.SDESLocation:
			chunk.Loc = item.Text
		case rtcp.SDESTool:
			chunk.Tool = item.Text
		case rtcp.SDESNote:
			chunk.Note = item.Text
		}
	}
	return chunk
}

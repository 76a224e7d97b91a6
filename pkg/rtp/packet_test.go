package rtp

import (
	"testing"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func TestDataPacketRoundTrip(t *testing.T) {
	original := &DataPacket{
		PayloadType:    8,
		SSRC:           12345,
		SequenceNumber: 99,
		Timestamp:      5000,
		Marker:         true,
		Payload:        []byte{1, 2, 3, 4},
	}

	raw, err := original.ToWire().Marshal()
	require.NoError(t, err)

	decoded := &rtp.Packet{}
	require.NoError(t, decoded.Unmarshal(raw))

	got := FromWire(decoded)
	require.Equal(t, original.PayloadType, got.PayloadType)
	require.Equal(t, original.SSRC, got.SSRC)
	require.Equal(t, original.SequenceNumber, got.SequenceNumber)
	require.Equal(t, original.Timestamp, got.Timestamp)
	require.Equal(t, original.Marker, got.Marker)
	require.Equal(t, original.Payload, got.Payload)
}

func TestMarshalUnmarshalCompoundReceiverReportAndSDES(t *testing.T) {
	compound := &CompoundControlPacket{Packets: []ControlPacket{
		{Kind: KindReceiverReport, ReceiverReport: &rtcp.ReceiverReport{SSRC: 1}},
		{Kind: KindSourceDescription, SourceDescription: &rtcp.SourceDescription{
			Chunks: []rtcp.SourceDescriptionChunk{
				{Source: 1, Items: []rtcp.SourceDescriptionItem{{Type: rtcp.SDESCNAME, Text: "a@b"}}},
			},
		}},
	}}

	raw, err := MarshalCompound(compound)
	require.NoError(t, err)

	decoded, err := UnmarshalCompound(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Packets, 2)
	require.Equal(t, KindReceiverReport, decoded.Packets[0].Kind)
	require.Equal(t, uint32(1), decoded.Packets[0].ReceiverReport.SSRC)
	require.Equal(t, KindSourceDescription, decoded.Packets[1].Kind)
	require.Equal(t, "a@b", decoded.Packets[1].SourceDescription.Chunks[0].Items[0].Text)
}

func TestMarshalUnmarshalCompoundWithAppData(t *testing.T) {
	compound := &CompoundControlPacket{Packets: []ControlPacket{
		{Kind: KindAppData, AppData: &AppData{
			SSRC:    7,
			Name:    [4]byte{'t', 'e', 's', 't'},
			SubType: 3,
			Data:    []byte{9, 9, 9},
		}},
	}}

	raw, err := MarshalCompound(compound)
	require.NoError(t, err)

	decoded, err := UnmarshalCompound(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Packets, 1)
	require.Equal(t, KindAppData, decoded.Packets[0].Kind)

	app := decoded.Packets[0].AppData
	require.Equal(t, uint32(7), app.SSRC)
	require.Equal(t, [4]byte{'t', 'e', 's', 't'}, app.Name)
	require.Equal(t, uint8(3), app.SubType)
	require.Equal(t, []byte{9, 9, 9, 0}, app.Data)
}

func TestMarshalUnmarshalCompoundWithBye(t *testing.T) {
	compound := &CompoundControlPacket{Packets: []ControlPacket{
		{Kind: KindBye, Bye: &rtcp.Goodbye{Sources: []uint32{42}, Reason: "done"}},
	}}

	raw, err := MarshalCompound(compound)
	require.NoError(t, err)

	decoded, err := UnmarshalCompound(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Packets, 1)
	require.Equal(t, []uint32{42}, decoded.Packets[0].Bye.Sources)
	require.Equal(t, "done", decoded.Packets[0].Bye.Reason)
}

func TestUnmarshalCompoundRejectsTruncatedHeader(t *testing.T) {
	_, err := UnmarshalCompound([]byte{1, 2})
	require.Error(t, err)
}

func TestChunkFromWireMapsAllItemTypes(t *testing.T) {
	wire := rtcp.SourceDescriptionChunk{
		Source: 5,
		Items: []rtcp.SourceDescriptionItem{
			{Type: rtcp.SDESCNAME, Text: "cname"},
			{Type: rtcp.SDESName, Text: "name"},
			{Type: rtcp.SDESEmail, Text: "email"},
			{Type: rtcp.SDESPhone, Text: "phone"},
			{Type: rtcp.SDESLocation, Text: "loc"},
			{Type: rtcp.SDESTool, Text: "tool"},
			{Type: rtcp.SDESNote, Text: "note"},
		},
	}

	chunk := ChunkFromWire(wire)
	require.Equal(t, uint32(5), chunk.SSRC)
	require.Equal(t, "cname", chunk.CNAME)
	require.Equal(t, "name", chunk.Name)
	require.Equal(t, "email", chunk.Email)
	require.Equal(t, "phone", chunk.Phone)
	require.Equal(t, "loc", chunk.Loc)
	require.Equal(t, "tool", chunk.Tool)
	require.Equal(t, "note", chunk.Note)
}

package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransportBindTwiceFails(t *testing.T) {
	m := &MockTransport{}
	require.NoError(t, m.Bind("local:1", nil))
	assert.ErrorIs(t, m.Bind("local:1", nil), ErrAlreadyBound)
}

func TestMockTransportSendBeforeBindFails(t *testing.T) {
	m := &MockTransport{}
	assert.ErrorIs(t, m.Send([]byte("x"), MemAddr("peer")), ErrNotBound)
}

func TestMockTransportSendRecordsPayloadAndPeer(t *testing.T) {
	m := &MockTransport{}
	require.NoError(t, m.Bind("local:1", nil))

	require.NoError(t, m.Send([]byte("hello"), MemAddr("peer:1")))
	last, ok := m.LastSent()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), last.Payload)
	assert.Equal(t, MemAddr("peer:1"), last.Peer)
	assert.Equal(t, 1, m.SentCount())
}

func TestMockTransportSimulateReceiveInvokesHandler(t *testing.T) {
	m := &MockTransport{}
	var gotOrigin string
	var gotPayload []byte
	require.NoError(t, m.Bind("local:1", func(origin net.Addr, payload []byte) {
		gotOrigin = origin.String()
		gotPayload = payload
	}))

	m.SimulateReceive(MemAddr("remote:1"), []byte("payload"))
	assert.Equal(t, "remote:1", gotOrigin)
	assert.Equal(t, []byte("payload"), gotPayload)
}

func TestMockTransportSimulateReceiveNoopBeforeBind(t *testing.T) {
	m := &MockTransport{}
	called := false
	m.onReceive = func(net.Addr, []byte) { called = true }
	m.SimulateReceive(MemAddr("remote:1"), []byte("x"))
	assert.False(t, called)
}

func TestMockTransportCloseIsIdempotent(t *testing.T) {
	m := &MockTransport{}
	require.NoError(t, m.Bind("local:1", nil))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

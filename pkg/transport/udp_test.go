package transport

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPTransportRoundTrip(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	var received []byte
	var receivedFrom net.Addr

	b := &UDPTransport{}
	require.NoError(t, b.Bind("127.0.0.1:0", func(origin net.Addr, payload []byte) {
		received = payload
		receivedFrom = origin
		wg.Done()
	}))
	defer b.Close()

	a := &UDPTransport{}
	require.NoError(t, a.Bind("127.0.0.1:0", func(net.Addr, []byte) {}))
	defer a.Close()

	require.NoError(t, a.Send([]byte("hello"), b.LocalAddr()))

	waitOrTimeout(t, &wg, 2*time.Second)
	assert.Equal(t, []byte("hello"), received)
	require.NotNil(t, receivedFrom)
}

func TestUDPTransportBindTwiceFails(t *testing.T) {
	tr := &UDPTransport{}
	require.NoError(t, tr.Bind("127.0.0.1:0", func(net.Addr, []byte) {}))
	defer tr.Close()

	assert.ErrorIs(t, tr.Bind("127.0.0.1:0", func(net.Addr, []byte) {}), ErrAlreadyBound)
}

func TestUDPTransportSendBeforeBindFails(t *testing.T) {
	tr := &UDPTransport{}
	err := tr.Send([]byte("x"), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999})
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestUDPTransportCloseIsIdempotent(t *testing.T) {
	tr := &UDPTransport{}
	require.NoError(t, tr.Bind("127.0.0.1:0", func(net.Addr, []byte) {}))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestUDPTransportLocalAddrNilBeforeBind(t *testing.T) {
	tr := &UDPTransport{}
	assert.Nil(t, tr.LocalAddr())
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for datagram delivery")
	}
}

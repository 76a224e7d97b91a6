package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// defaultReceiveBufferSize is the fixed receive-predictor size spec.md §6 calls
// for, matching a typical MTU (default 1500, same as the teacher's
// transport_udp.go).
const defaultReceiveBufferSize = 1500

// UDPTransport is a net.UDPConn-backed Transport. Mechanically grounded on
// the teacher's UDPTransport/UDPRTCPTransport (transport_udp.go,
// transport_rtcp_udp.go: net.ListenUDP, ReadFromUDP/WriteToUDP), restructured
// from their pull-style Receive(ctx) into a push-style internal read loop
// that calls the registered Handler.
type UDPTransport struct {
	// ReceiveBufferSize overrides the default 1500-byte receive
	// predictor; zero means use the default. Must be set before Bind.
	ReceiveBufferSize int

	mu        sync.RWMutex
	conn      *net.UDPConn
	localAddr *net.UDPAddr
	onReceive Handler
	closed    bool
	wg        sync.WaitGroup
}

var _ Transport = (*UDPTransport)(nil)

// Bind opens a UDP socket at localAddr (host:port, empty host for a
// wildcard bind) and starts the receive loop.
func (t *UDPTransport) Bind(localAddr string, onReceive Handler) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return ErrAlreadyBound
	}

	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("transport: resolve %q: %w", localAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("transport: listen %q: %w", localAddr, err)
	}

	t.conn = conn
	t.localAddr = conn.LocalAddr().(*net.UDPAddr)
	t.onReceive = onReceive
	t.mu.Unlock()

	t.wg.Add(1)
	go t.receiveLoop()
	return nil
}

func (t *UDPTransport) receiveLoop() {
	defer t.wg.Done()

	bufSize := t.ReceiveBufferSize
	if bufSize == 0 {
		bufSize = defaultReceiveBufferSize
	}
	buf := make([]byte, bufSize)

	for {
		t.mu.RLock()
		conn := t.conn
		handler := t.onReceive
		closed := t.closed
		t.mu.RUnlock()
		if closed || conn == nil {
			return
		}

		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		if handler == nil {
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		handler(addr, payload)
	}
}

// Send writes payload to peer. peer must be a *net.UDPAddr.
func (t *UDPTransport) Send(payload []byte, peer net.Addr) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return ErrNotBound
	}
	udpAddr, ok := peer.(*net.UDPAddr)
	if !ok {
		resolved, err := net.ResolveUDPAddr("udp", peer.String())
		if err != nil {
			return fmt.Errorf("transport: resolve peer %q: %w", peer.String(), err)
		}
		udpAddr = resolved
	}
	_, err := conn.WriteToUDP(payload, udpAddr)
	if err != nil {
		return fmt.Errorf("transport: write to %s: %w", udpAddr, err)
	}
	return nil
}

// Close shuts down the socket and waits for the receive loop to exit.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	if t.closed || t.conn == nil {
		t.closed = true
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	err := conn.Close()
	t.wg.Wait()
	return err
}

// LocalAddr reports the bound local address, or nil before Bind.
func (t *UDPTransport) LocalAddr() net.Addr {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.localAddr == nil {
		return nil
	}
	return t.localAddr
}

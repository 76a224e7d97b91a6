package transport

import (
	"net"
	"sync"
)

// MemAddr is a trivial net.Addr for in-memory tests, grounded on the
// teacher's MockTransport (session_test.go) which faked addresses the same
// way rather than opening real sockets.
type MemAddr string

func (a MemAddr) Network() string { return "mem" }
func (a MemAddr) String() string  { return string(a) }

// MockTransport is an in-memory Transport double. Sent payloads are
// recorded for assertions; SimulateReceive drives the registered Handler
// as if a datagram had arrived from origin.
type MockTransport struct {
	mu        sync.Mutex
	bound     bool
	local     net.Addr
	onReceive Handler
	closed    bool
	Sent      []SentPacket
}

// SentPacket records one call to Send for test assertions.
type SentPacket struct {
	Payload []byte
	Peer    net.Addr
}

var _ Transport = (*MockTransport)(nil)

// Bind records the local address and handler without opening any socket.
func (m *MockTransport) Bind(localAddr string, onReceive Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bound {
		return ErrAlreadyBound
	}
	m.bound = true
	m.local = MemAddr(localAddr)
	m.onReceive = onReceive
	return nil
}

// Send appends payload to Sent rather than writing anywhere.
func (m *MockTransport) Send(payload []byte, peer net.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return ErrNotBound
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.Sent = append(m.Sent, SentPacket{Payload: cp, Peer: peer})
	return nil
}

// Close marks the transport closed. Idempotent.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// LocalAddr reports the address passed to Bind.
func (m *MockTransport) LocalAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local
}

// SimulateReceive invokes the registered handler as if payload arrived
// from origin. It is a no-op before Bind or after Close, matching a real
// transport's behavior once its socket is gone.
func (m *MockTransport) SimulateReceive(origin net.Addr, payload []byte) {
	m.mu.Lock()
	handler := m.onReceive
	closed := m.closed
	bound := m.bound
	m.mu.Unlock()
	if !bound || closed || handler == nil {
		return
	}
	handler(origin, payload)
}

// SentCount reports how many Send calls have been recorded.
func (m *MockTransport) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// LastSent returns the most recently recorded Send call and true, or the
// zero value and false if nothing has been sent.
func (m *MockTransport) LastSent() (SentPacket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentPacket{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

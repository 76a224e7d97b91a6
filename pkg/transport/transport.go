// Package transport implements the push-style datagram endpoint contract
// the session engine is handed for both its data and control channels
// (spec.md §6, "Transport contract"). Binding registers a delivery
// callback invoked by the transport itself as packets arrive, inverted
// from a pull loop — the engine never calls Receive.
package transport

import (
	"fmt"
	"net"
)

// Handler is the delivery callback a Transport invokes for every inbound
// datagram, with the packet's origin address and raw payload.
type Handler func(origin net.Addr, payload []byte)

// Transport is the abstract connectionless endpoint spec.md §6 describes:
// bind, send, close, plus the Handler registered at bind time. One value
// serves either the data or the control channel; the session engine owns
// two instances.
type Transport interface {
	// Bind opens the endpoint at localAddr and begins invoking onReceive
	// for every inbound datagram on an internal goroutine. onReceive must
	// not block for long; it is called synchronously per received
	// datagram.
	Bind(localAddr string, onReceive Handler) error

	// Send writes payload to peer. Errors are the caller's responsibility
	// to log/aggregate — spec.md §7 requires transport write failures
	// never escape to the engine's public callers, only to its internal
	// bookkeeping.
	Send(payload []byte, peer net.Addr) error

	// Close releases the endpoint's resources. Idempotent.
	Close() error

	// LocalAddr reports the bound local address, or nil before Bind.
	LocalAddr() net.Addr
}

// ErrAlreadyBound is returned by Bind when called a second time on the
// same Transport instance.
var ErrAlreadyBound = fmt.Errorf("transport: already bound")

// ErrNotBound is returned by Send before Bind has succeeded.
var ErrNotBound = fmt.Errorf("transport: not bound")

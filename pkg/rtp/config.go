package rtp

import "github.com/sirupsen/logrus"

// Config holds the engine's mutable-before-running options (§6). Every field
// has the default spec.md names; zero-value Config is not valid on its own —
// use DefaultConfig and override, the way the original exposed defaults
// through its no-arg constructor plus setters.
type Config struct {
	// DiscardOutOfOrder drops inbound RTP whose sequence number is <= the
	// last one seen for that source.
	DiscardOutOfOrder bool

	// SendBufferSize is the configured socket send buffer size, in bytes.
	// The engine stores and reports it (GetSendBufferSize); it does not
	// apply it to the transports.
	SendBufferSize int

	// ReceiveBufferSize is the configured socket receive buffer and
	// receive-predictor size, in bytes. The engine stores and reports it
	// (GetReceiveBufferSize); it does not apply it to the transports
	// (UDPTransport takes its own ReceiveBufferSize field).
	ReceiveBufferSize int

	// MaxCollisionsBeforeConsideringLoop is the number of foreign-origin
	// SSRC collisions tolerated before the engine treats the situation as
	// a loop and terminates.
	MaxCollisionsBeforeConsideringLoop int

	// AutomatedRTCPHandling, when true, makes the engine emit join/leave
	// RTCP compounds automatically and rejects explicit
	// SendControlPacket calls except APP_DATA.
	AutomatedRTCPHandling bool

	// Host is informational only; it is never used to bind anything.
	Host string

	// Logger is the engine-scoped structured logger. Nil defaults to
	// logrus.StandardLogger() tagged with a component field.
	Logger logrus.FieldLogger
}

// DefaultConfig returns the option defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		DiscardOutOfOrder:                  true,
		SendBufferSize:                     1500,
		ReceiveBufferSize:                  1500,
		MaxCollisionsBeforeConsideringLoop: 3,
		AutomatedRTCPHandling:              true,
	}
}

// GetDiscardOutOfOrder reports the current out-of-order policy.
func (e *Engine) GetDiscardOutOfOrder() bool {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.DiscardOutOfOrder
}

// SetDiscardOutOfOrder sets the out-of-order policy. Fails once running.
func (e *Engine) SetDiscardOutOfOrder(v bool) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.DiscardOutOfOrder = v
	return nil
}

// GetSendBufferSize reports the configured socket send buffer size.
func (e *Engine) GetSendBufferSize() int {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.SendBufferSize
}

// SetSendBufferSize sets the socket send buffer size. Fails once running.
func (e *Engine) SetSendBufferSize(n int) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.SendBufferSize = n
	return nil
}

// GetReceiveBufferSize reports the configured socket receive buffer size.
func (e *Engine) GetReceiveBufferSize() int {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.ReceiveBufferSize
}

// SetReceiveBufferSize sets the socket receive buffer size. Fails once running.
func (e *Engine) SetReceiveBufferSize(n int) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.ReceiveBufferSize = n
	return nil
}

// GetMaxCollisionsBeforeConsideringLoop reports the collision threshold.
func (e *Engine) GetMaxCollisionsBeforeConsideringLoop() int {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.MaxCollisionsBeforeConsideringLoop
}

// SetMaxCollisionsBeforeConsideringLoop sets the collision threshold. Fails once running.
func (e *Engine) SetMaxCollisionsBeforeConsideringLoop(n int) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.MaxCollisionsBeforeConsideringLoop = n
	return nil
}

// IsAutomatedRTCPHandling reports whether the engine manages RTCP itself.
func (e *Engine) IsAutomatedRTCPHandling() bool {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.AutomatedRTCPHandling
}

// SetAutomatedRTCPHandling toggles automated RTCP handling. Fails once running.
func (e *Engine) SetAutomatedRTCPHandling(v bool) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.AutomatedRTCPHandling = v
	return nil
}

// GetHost reports the informational host string.
func (e *Engine) GetHost() string {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.Host
}

// SetHost sets the informational host string. Fails once running.
func (e *Engine) SetHost(h string) error {
	e.configMu.Lock()
	defer e.configMu.Unlock()
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.config.Host = h
	return nil
}

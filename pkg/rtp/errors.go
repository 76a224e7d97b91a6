package rtp

import "errors"

// Sentinel errors returned by the session engine. Callers should use
// errors.Is against these rather than comparing strings.
var (
	// ErrInvalidPayloadType is returned by New when payload_type falls
	// outside [0, 127].
	ErrInvalidPayloadType = errors.New("rtp: payload type out of range [0,127]")

	// ErrBindFailure is returned by Init when either transport fails to
	// bind. Both transports are released before this error surfaces.
	ErrBindFailure = errors.New("rtp: failed to bind transport")

	// ErrConfigurationImmutable is returned by configuration mutators
	// called after the engine has started running.
	ErrConfigurationImmutable = errors.New("rtp: configuration is immutable once running")

	// ErrNotRunning identifies why SendDataPacket/SendControlPacket refused
	// to send while the engine isn't running. Per spec.md §7 the public
	// methods still surface this as a plain boolean false; the engine logs
	// this error at the rejection site rather than returning it.
	ErrNotRunning = errors.New("rtp: engine is not running")

	// ErrSendRejected identifies why SendControlPacket refused to send: the
	// packet is not APP_DATA and automated RTCP handling is enabled. Per
	// spec.md §7 the public method still surfaces this as a plain boolean
	// false; the engine logs this error at the rejection site rather than
	// returning it.
	ErrSendRejected = errors.New("rtp: explicit control send rejected while automation is enabled")

	// ErrLoopDetected is the cause passed to session_terminated when the
	// engine observes traffic claiming its own SSRC from its own address.
	ErrLoopDetected = errors.New("rtp: loop detected")

	// ErrCollisionLimitExceeded is the cause passed to session_terminated
	// after max_collisions_before_considering_loop foreign collisions.
	ErrCollisionLimitExceeded = errors.New("rtp: collision limit exceeded, treating as loop")
)

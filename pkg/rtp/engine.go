package rtp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/akebayeri/efflux/pkg/transport"
)

// Engine is the session engine: the per-session orchestrator that ingests
// and emits RTP data against the participant registry, performs automated
// RTCP bookkeeping, detects and resolves SSRC collisions, and fans out
// observed events (spec.md §1–§4). Grounded on the teacher's Session
// (session.go) for the "coordinating struct wiring specialized components
// through a config value" shape; the internals below are a generalization
// of AbstractRtpSession rather than a port of the teacher's telephony
// logic.
type Engine struct {
	id          string
	payloadType uint8

	localMu sync.RWMutex
	local   *Participant

	registry   *Registry
	sequence   Sequence
	collision  CollisionDetector
	admission  AdmissionPolicy
	automation *RtcpAutomation
	fanout     fanout

	sentOrReceived atomic.Bool

	lifecycleMu sync.Mutex
	fsm         *fsm.FSM

	configMu sync.RWMutex
	config   Config

	dataTransport    transport.Transport
	controlTransport transport.Transport

	logger  logrus.FieldLogger
	metrics *Metrics
}

// New builds an Engine bound to no transports yet (spec.md §4.1 "new").
// It fails with ErrInvalidPayloadType if payloadType is outside [0,127].
// Transports must be supplied via SetTransports before Init.
func New(id string, payloadType int, local *Participant, cfg Config) (*Engine, error) {
	if payloadType < 0 || payloadType > 127 {
		return nil, ErrInvalidPayloadType
	}
	e := &Engine{
		id:          id,
		payloadType: uint8(payloadType),
		local:       local,
		registry:    NewRegistry(),
		admission:   AllowAllPolicy{},
		automation:  NewRtcpAutomation(id),
		config:      cfg,
		metrics:     noopMetrics(),
	}
	e.fsm = newLifecycle()
	e.logger = defaultLogger(cfg.Logger)
	return e, nil
}

// SetTransports injects the data and control transports Init will bind.
// Fails with ErrConfigurationImmutable once running.
func (e *Engine) SetTransports(data, control transport.Transport) error {
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.dataTransport = data
	e.controlTransport = control
	return nil
}

// SetAdmissionPolicy overrides the default always-admit policy for
// previously-unseen SSRCs discovered from inbound RTP (spec.md §9).
func (e *Engine) SetAdmissionPolicy(p AdmissionPolicy) error {
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.admission = p
	return nil
}

// SetMetricsRegisterer points the engine at a Prometheus registerer. Call
// before Init; the engine runs with a private no-op registry if this is
// never called.
func (e *Engine) SetMetricsRegisterer(reg prometheus.Registerer) error {
	if e.isRunning() {
		return ErrConfigurationImmutable
	}
	e.metrics = NewMetrics(reg)
	return nil
}

// LocalParticipant returns a snapshot of the local participant's identity.
func (e *Engine) LocalParticipant() Participant {
	e.localMu.RLock()
	defer e.localMu.RUnlock()
	return *e.local
}

func (e *Engine) localSSRC() uint32 {
	e.localMu.RLock()
	defer e.localMu.RUnlock()
	return e.local.SSRC
}

func (e *Engine) localDataAddress() net.Addr {
	e.localMu.RLock()
	defer e.localMu.RUnlock()
	return e.local.DataAddress
}

// markTraffic latches sent_or_received_packets and returns its previous
// value (spec.md §3, §4.2 step 3).
func (e *Engine) markTraffic() bool {
	return e.sentOrReceived.Swap(true)
}

// Init binds the data and control transports to the local participant's
// addresses (spec.md §4.1). Idempotent while already running; fails with
// ErrBindFailure on any bind error, rolling back in the original's order
// (data channel bound first; on control-bind failure, close the
// already-bound data channel before giving up).
func (e *Engine) Init() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	switch e.fsm.Current() {
	case StateRunning:
		return nil
	case StateFailed, StateTerminated:
		return ErrBindFailure
	}

	if e.dataTransport == nil || e.controlTransport == nil {
		e.transitionToFailed()
		return fmt.Errorf("%w: transports not configured", ErrBindFailure)
	}

	dataAddr := addrString(e.localDataAddress())
	if err := e.dataTransport.Bind(dataAddr, e.handleData); err != nil {
		e.transitionToFailed()
		return fmt.Errorf("%w: data transport: %v", ErrBindFailure, err)
	}

	controlAddr := addrString(e.localControlAddress())
	if err := e.controlTransport.Bind(controlAddr, e.handleControl); err != nil {
		if closeErr := e.dataTransport.Close(); closeErr != nil {
			e.logger.WithError(closeErr).Warn("failed to close data transport during bind rollback")
		}
		e.transitionToFailed()
		return fmt.Errorf("%w: control transport: %v", ErrBindFailure, err)
	}

	if err := e.transitionToRunning(); err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailure, err)
	}

	if e.IsAutomatedRTCPHandling() {
		e.emitJoinCompound()
	}
	return nil
}

func (e *Engine) localControlAddress() net.Addr {
	e.localMu.RLock()
	defer e.localMu.RUnlock()
	return e.local.ControlAddress
}

// Terminate stops the engine (spec.md §4.1 "terminate"). Idempotent: a
// call when not running is a no-op. cause may be nil for an explicit,
// uncaused termination; it is passed verbatim to SessionTerminated
// observers.
func (e *Engine) Terminate(cause error) {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.fsm.Current() != StateRunning {
		return
	}

	e.fanout.clearData()
	if e.dataTransport != nil {
		if err := e.dataTransport.Close(); err != nil {
			e.logger.WithError(err).Warn("data transport close failed")
		}
	}

	local := e.LocalParticipant()
	e.emitLeaveCompounds(ByeMotiveTerminate, &local)

	e.fanout.clearControl()
	if e.controlTransport != nil {
		if err := e.controlTransport.Close(); err != nil {
			e.logger.WithError(err).Warn("control transport close failed")
		}
	}

	e.notifySessionTerminated(cause)
	e.fanout.clearEvent()

	if err := e.transitionToTerminated(); err != nil {
		e.logger.WithError(err).Error("lifecycle transition to terminated failed")
	}
}

// SendData constructs a DataPacket from payload/timestamp/marker and fans
// it out (spec.md §4.1 "send_data").
func (e *Engine) SendData(payload []byte, timestamp uint32, marker bool) bool {
	return e.SendDataPacket(&DataPacket{Timestamp: timestamp, Marker: marker, Payload: payload})
}

// SendDataPacket fans packet out after overwriting PayloadType, SSRC, and
// SequenceNumber (spec.md §4.1 "send_data_packet"). Returns false if not
// running.
func (e *Engine) SendDataPacket(packet *DataPacket) bool {
	if !e.isRunning() {
		e.logger.WithError(ErrNotRunning).Debug("rejected outbound data packet")
		return false
	}
	packet.PayloadType = e.payloadType
	packet.SSRC = e.localSSRC()
	packet.SequenceNumber = e.sequence.Next()

	e.markTraffic()
	ok := e.fanoutData(packet)
	e.metrics.dataPacketsSent.Inc()
	return ok
}

// fanoutData implements send_to_all for RTP data (spec.md §4.4).
func (e *Engine) fanoutData(packet *DataPacket) bool {
	raw, err := packet.ToWire().Marshal()
	if err != nil {
		e.logger.WithError(err).Warn("failed to marshal outbound RTP packet")
		return false
	}

	allOK := true
	e.registry.RangeLive(func(ctx *Context) {
		if ctx.Participant.DataAddress == nil {
			return
		}
		if err := e.dataTransport.Send(raw, ctx.Participant.DataAddress); err != nil {
			e.logger.WithError(err).WithField("ssrc", ctx.Participant.SSRC).Warn("data transport write failed")
			allOK = false
			return
		}
		ctx.AddSent(len(packet.Payload))
	})
	return allOK
}

// SendControlPacket sends compound explicitly (spec.md §4.1
// "send_control_packet"). Permitted only when automated RTCP handling is
// off, except a compound made entirely of APP_DATA packets, which is
// always permitted.
func (e *Engine) SendControlPacket(compound *CompoundControlPacket) bool {
	if !e.isRunning() {
		e.logger.WithError(ErrNotRunning).Debug("rejected outbound control packet")
		return false
	}
	if e.IsAutomatedRTCPHandling() && !isAppDataOnly(compound) {
		e.logger.WithError(ErrSendRejected).Debug("rejected outbound control packet")
		return false
	}
	return e.fanoutControl(compound)
}

func isAppDataOnly(compound *CompoundControlPacket) bool {
	if len(compound.Packets) == 0 {
		return false
	}
	for _, p := range compound.Packets {
		if p.Kind != KindAppData {
			return false
		}
	}
	return true
}

// fanoutControl sends the same compound to every live participant's
// control address, mirroring fanoutData's discipline for RTCP.
func (e *Engine) fanoutControl(compound *CompoundControlPacket) bool {
	raw, err := MarshalCompound(compound)
	if err != nil {
		e.logger.WithError(err).Warn("failed to marshal control compound")
		return false
	}
	allOK := true
	e.registry.RangeLive(func(ctx *Context) {
		if ctx.Participant.ControlAddress == nil {
			return
		}
		if err := e.controlTransport.Send(raw, ctx.Participant.ControlAddress); err != nil {
			e.logger.WithError(err).WithField("ssrc", ctx.Participant.SSRC).Warn("control transport write failed")
			allOK = false
			return
		}
	})
	e.metrics.controlCompoundsOut.Inc()
	return allOK
}

// emitJoinCompound sends the join compound to every currently-live
// participant, gated by automated_rtcp_handling (spec.md §4.5).
func (e *Engine) emitJoinCompound() {
	local := e.LocalParticipant()
	e.fanoutControl(e.automation.BuildJoinCompound(&local))
}

// emitLeaveCompounds builds and sends one leave compound per live
// participant (spec.md §4.5), unconditionally (leave, unlike join, is not
// gated by automated_rtcp_handling in spec.md §4.1/§4.5).
func (e *Engine) emitLeaveCompounds(motive string, local *Participant) {
	e.registry.RangeLive(func(ctx *Context) {
		if ctx.Participant.ControlAddress == nil {
			return
		}
		compound := e.automation.BuildLeaveCompound(local, ctx, motive)
		raw, err := MarshalCompound(compound)
		if err != nil {
			e.logger.WithError(err).Warn("failed to marshal leave compound")
			return
		}
		if err := e.controlTransport.Send(raw, ctx.Participant.ControlAddress); err != nil {
			e.logger.WithError(err).WithField("ssrc", ctx.Participant.SSRC).Warn("control transport write failed")
			return
		}
		e.metrics.controlCompoundsOut.Inc()
	})
}

// AddParticipant rejects remote.SSRC == local.SSRC; otherwise inserts
// under the registry's write lock (spec.md §4.1 "add_participant").
func (e *Engine) AddParticipant(remote *Participant) bool {
	if remote.SSRC == e.localSSRC() {
		return false
	}
	_, created := e.registry.Insert(remote)
	if created {
		e.metrics.participants.Inc()
	}
	return created
}

// RemoveParticipant removes and returns the context for ssrc, or nil.
func (e *Engine) RemoveParticipant(ssrc uint32) *Context {
	ctx := e.registry.Remove(ssrc)
	if ctx != nil {
		e.metrics.participants.Dec()
	}
	return ctx
}

// GetRemoteParticipant looks up ssrc without locking out writers for long.
func (e *Engine) GetRemoteParticipant(ssrc uint32) *Context {
	return e.registry.Get(ssrc)
}

// GetRemoteParticipants returns a read-only snapshot of every tracked
// context.
func (e *Engine) GetRemoteParticipants() []*Context {
	return e.registry.All()
}

// Listener registration (spec.md §4.1).
func (e *Engine) AddDataListener(l DataListener)          { e.fanout.addData(l) }
func (e *Engine) RemoveDataListener(l DataListener)       { e.fanout.removeData(l) }
func (e *Engine) AddControlListener(l ControlListener)    { e.fanout.addControl(l) }
func (e *Engine) RemoveControlListener(l ControlListener) { e.fanout.removeControl(l) }
func (e *Engine) AddAppDataListener(l AppDataListener)    { e.fanout.addAppData(l) }
func (e *Engine) RemoveAppDataListener(l AppDataListener) { e.fanout.removeAppData(l) }
func (e *Engine) AddEventListener(l EventListener)        { e.fanout.addEvent(l) }
func (e *Engine) RemoveEventListener(l EventListener)     { e.fanout.removeEvent(l) }

// handleData is bound to the data transport as its delivery Handler.
func (e *Engine) handleData(origin net.Addr, raw []byte) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		e.logger.WithError(err).Debug("dropping malformed RTP packet")
		return
	}
	e.onData(origin, FromWire(pkt))
}

// onData implements the inbound data path (spec.md §4.2).
func (e *Engine) onData(origin net.Addr, packet *DataPacket) {
	if !e.isRunning() {
		return
	}
	if packet.PayloadType != e.payloadType {
		e.metrics.dataPacketsDropped.WithLabelValues("payload_type").Inc()
		return
	}

	if packet.SSRC == e.localSSRC() {
		if e.handleSelfSSRCCollision(origin, packet) {
			return
		}
	}

	ctx := e.registry.Get(packet.SSRC)
	if ctx == nil {
		participant, admit := e.admission.AdmitUnknown(origin, packet)
		if !admit {
			e.metrics.dataPacketsDropped.WithLabelValues("admission_rejected").Inc()
			return
		}
		newCtx, isNew := e.registry.Insert(participant)
		ctx = newCtx
		if isNew {
			e.metrics.participants.Inc()
			e.notifyParticipantJoinedFromData(ctx.Participant, packet)
		}
	}

	if e.GetDiscardOutOfOrder() && ctx.HasSeenSequence() && ctx.LastSequenceNumber() >= packet.SequenceNumber {
		e.metrics.dataPacketsDropped.WithLabelValues("out_of_order").Inc()
		return
	}
	ctx.UpdateLastSequenceNumber(packet.SequenceNumber)

	if !addrEqual(origin, ctx.Participant.DataAddress) {
		e.registry.RebindDataAddress(ctx, origin)
	}

	ctx.AddReceived(len(packet.Payload))
	e.metrics.dataPacketsReceived.Inc()
	e.markTraffic()
	e.notifyDataPacketReceived(ctx.Participant, packet)
}

// handleSelfSSRCCollision implements spec.md §4.2 step 3. It returns true
// if the engine terminated, in which case the caller must stop processing
// the packet.
func (e *Engine) handleSelfSSRCCollision(origin net.Addr, packet *DataPacket) bool {
	if addrEqual(origin, e.localDataAddress()) {
		e.Terminate(fmt.Errorf("%w: self-loop on local data address", ErrLoopDetected))
		return true
	}

	if e.collision.RecordForeignCollision(e.GetMaxCollisionsBeforeConsideringLoop()) {
		e.Terminate(fmt.Errorf("%w after %d SSRC collisions", ErrCollisionLimitExceeded, e.collision.Collisions()))
		return true
	}

	oldSSRC := packet.SSRC
	var oldLocal Participant
	var newSSRC uint32
	e.localMu.Lock()
	newSSRC = e.local.ResolveSSRCConflict(packet.SSRC)
	oldLocal = *e.local
	oldLocal.SSRC = oldSSRC
	e.local.SSRC = newSSRC
	e.localMu.Unlock()

	e.metrics.collisions.Inc()
	wasSeen := e.markTraffic()
	if wasSeen && e.IsAutomatedRTCPHandling() {
		e.emitLeaveCompounds(ByeMotiveCollision, &oldLocal)
		e.emitJoinCompound()
	}
	e.notifyResolvedSSRCConflict(oldSSRC, newSSRC)
	return false
}

// handleControl is bound to the control transport as its delivery Handler.
func (e *Engine) handleControl(origin net.Addr, raw []byte) {
	compound, err := UnmarshalCompound(raw)
	if err != nil {
		e.logger.WithError(err).Debug("dropping malformed RTCP compound")
		return
	}
	e.onControl(origin, compound)
}

// onControl implements the inbound control path (spec.md §4.3). The
// dispatch switch below is an exclusive match with no shared fallthrough
// case, resolving the APP_DATA open question in spec.md §9 toward the
// "reimplement as an exclusive match" option.
func (e *Engine) onControl(origin net.Addr, compound *CompoundControlPacket) {
	if !e.isRunning() {
		return
	}
	e.metrics.controlCompoundsIn.Inc()

	if !e.IsAutomatedRTCPHandling() {
		e.notifyControlPacketReceived(compound)
		return
	}

	for _, inner := range compound.Packets {
		switch inner.Kind {
		case KindSenderReport, KindReceiverReport:
			e.handleReportPacket(inner)
		case KindSourceDescription:
			e.handleSDES(origin, inner.SourceDescription)
		case KindBye:
			e.handleBye(inner.Bye)
		case KindAppData:
			e.notifyAppDataReceived(inner.AppData)
		default:
			// Unknown type: skip.
		}
	}
}

// handleReportPacket implements spec.md §4.3.1, including the recovered
// early-return on an empty reception-report list.
func (e *Engine) handleReportPacket(inner ControlPacket) {
	var senderSSRC uint32
	var reports []rtcp.ReceptionReport
	switch inner.Kind {
	case KindSenderReport:
		senderSSRC = inner.SenderReport.SSRC
		reports = inner.SenderReport.Reports
	case KindReceiverReport:
		senderSSRC = inner.ReceiverReport.SSRC
		reports = inner.ReceiverReport.Reports
	}
	if len(reports) == 0 {
		return
	}
	if e.registry.Get(senderSSRC) == nil {
		return
	}
	localSSRC := e.localSSRC()
	for _, block := range reports {
		if block.SSRC != localSSRC {
			continue
		}
		// Metric absorption (fraction lost, jitter, ...) is a deferred
		// placeholder per spec.md §9 — nothing to record yet.
	}
}

// handleSDES implements spec.md §4.3.2.
func (e *Engine) handleSDES(origin net.Addr, sd *rtcp.SourceDescription) {
	for _, chunkWire := range sd.Chunks {
		chunk := ChunkFromWire(chunkWire)

		ctx, isNew := e.registry.GetOrCreate(chunk.SSRC, func() *Participant {
			return participantFromSDES(origin, chunk)
		})
		if isNew {
			ctx.LatchSdes()
			e.metrics.participants.Inc()
			e.notifyParticipantJoinedFromControl(ctx.Participant, chunk)
		} else if !ctx.SdesReceived() {
			e.registry.ApplySDES(ctx, chunk)
			e.notifyParticipantDataUpdated(ctx.Participant)
		}

		if !addrEqual(origin, ctx.Participant.ControlAddress) {
			e.registry.RebindControlAddress(ctx, origin)
		}
	}
}

// handleBye implements spec.md §4.3.3.
func (e *Engine) handleBye(bye *rtcp.Goodbye) {
	for _, ssrc := range bye.Sources {
		ctx := e.registry.Get(ssrc)
		if ctx == nil {
			continue
		}
		ctx.LatchBye()
		e.notifyParticipantLeft(ctx.Participant)
	}
}

func addrEqual(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// Observer dispatch, each recovering from a panicking callback per
// spec.md §7 ("Observer callbacks must not raise; if they do, the engine
// logs and continues to the next observer").

func (e *Engine) notifyDataPacketReceived(p *Participant, packet *DataPacket) {
	for _, l := range e.fanout.dataSnapshot() {
		e.safeCall(func() { l(e, p, packet) })
	}
}

func (e *Engine) notifyControlPacketReceived(compound *CompoundControlPacket) {
	for _, l := range e.fanout.controlSnapshot() {
		e.safeCall(func() { l(e, compound) })
	}
}

func (e *Engine) notifyAppDataReceived(app *AppData) {
	for _, l := range e.fanout.appDataSnapshot() {
		e.safeCall(func() { l(e, app) })
	}
}

func (e *Engine) notifyResolvedSSRCConflict(old, newSSRC uint32) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.ResolvedSSRCConflict(e, old, newSSRC) })
	}
}

func (e *Engine) notifyParticipantJoinedFromData(p *Participant, packet *DataPacket) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.ParticipantJoinedFromData(e, p, packet) })
	}
}

func (e *Engine) notifyParticipantJoinedFromControl(p *Participant, chunk SDESChunk) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.ParticipantJoinedFromControl(e, p, chunk) })
	}
}

func (e *Engine) notifyParticipantDataUpdated(p *Participant) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.ParticipantDataUpdated(e, p) })
	}
}

func (e *Engine) notifyParticipantLeft(p *Participant) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.ParticipantLeft(e, p) })
	}
}

func (e *Engine) notifySessionTerminated(cause error) {
	for _, l := range e.fanout.eventSnapshot() {
		e.safeCall(func() { l.SessionTerminated(e, cause) })
	}
}

func (e *Engine) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Error("observer callback panicked")
		}
	}()
	fn()
}

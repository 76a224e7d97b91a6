package rtp

import (
	"reflect"
	"sync"
)

// DataListener receives every inbound data packet accepted past the
// collision/out-of-order checks.
type DataListener func(engine *Engine, participant *Participant, packet *DataPacket)

// ControlListener receives raw compound control packets, but only while
// automated RTCP handling is disabled (spec.md §6). APP_DATA packets are
// delivered separately, to AppDataListener.
type ControlListener func(engine *Engine, compound *CompoundControlPacket)

// AppDataListener receives APP_DATA control packets while automated RTCP
// handling is enabled. With automation disabled, APP_DATA packets arrive
// only inside the raw compound passed to ControlListener.
type AppDataListener func(engine *Engine, app *AppData)

// EventListener receives lifecycle and membership notifications.
type EventListener interface {
	ResolvedSSRCConflict(engine *Engine, old, new uint32)
	ParticipantJoinedFromData(engine *Engine, p *Participant, packet *DataPacket)
	ParticipantJoinedFromControl(engine *Engine, p *Participant, chunk SDESChunk)
	ParticipantDataUpdated(engine *Engine, p *Participant)
	ParticipantLeft(engine *Engine, p *Participant)
	SessionTerminated(engine *Engine, cause error)
}

// fanout holds four independent append-only, copy-on-write observer lists
// (data / control / app-data / event). Spec.md §9 calls for "a snapshotting structure
// ... so registration concurrent with iteration is safe but not required to
// be visible to an already-started dispatch" — each list call below copies
// under a short-held mutex and iterates the copy lock-free, so dispatch
// never blocks on registration and vice versa.
type fanout struct {
	mu    sync.Mutex
	data  []DataListener
	ctrl  []ControlListener
	appd  []AppDataListener
	event []EventListener
}

func (f *fanout) addData(l DataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(copySliceD(f.data), l)
}

func (f *fanout) removeData(l DataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = removeFunc(f.data, l)
}

func (f *fanout) addControl(l ControlListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrl = append(copySliceC(f.ctrl), l)
}

func (f *fanout) removeControl(l ControlListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrl = removeFuncC(f.ctrl, l)
}

func (f *fanout) addAppData(l AppDataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appd = append(copySliceA(f.appd), l)
}

func (f *fanout) removeAppData(l AppDataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appd = removeFuncA(f.appd, l)
}

func (f *fanout) addEvent(l EventListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make([]EventListener, len(f.event), len(f.event)+1)
	copy(next, f.event)
	f.event = append(next, l)
}

func (f *fanout) removeEvent(l EventListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make([]EventListener, 0, len(f.event))
	for _, existing := range f.event {
		if existing != l {
			next = append(next, existing)
		}
	}
	f.event = next
}

// clearData/clearControl/clearEvent are used by Terminate (spec.md §4.1:
// "Clears data and control observer lists ... clears event observers").
func (f *fanout) clearData() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
}

func (f *fanout) clearControl() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrl = nil
	f.appd = nil
}

func (f *fanout) clearEvent() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.event = nil
}

// snapshots used for lock-free dispatch.

func (f *fanout) dataSnapshot() []DataListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

func (f *fanout) controlSnapshot() []ControlListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctrl
}

func (f *fanout) appDataSnapshot() []AppDataListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appd
}

func (f *fanout) eventSnapshot() []EventListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.event
}

func copySliceD(s []DataListener) []DataListener {
	next := make([]DataListener, len(s), len(s)+1)
	copy(next, s)
	return next
}

func copySliceC(s []ControlListener) []ControlListener {
	next := make([]ControlListener, len(s), len(s)+1)
	copy(next, s)
	return next
}

func copySliceA(s []AppDataListener) []AppDataListener {
	next := make([]AppDataListener, len(s), len(s)+1)
	copy(next, s)
	return next
}

// funcPtr identifies a func value for removal by comparing code pointers,
// since Go func values are not comparable with ==.
func funcPtr(f any) uintptr {
	return reflect.ValueOf(f).Pointer()
}

func removeFunc(s []DataListener, target DataListener) []DataListener {
	targetPtr := funcPtr(target)
	next := make([]DataListener, 0, len(s))
	for _, l := range s {
		if funcPtr(l) != targetPtr {
			next = append(next, l)
		}
	}
	return next
}

func removeFuncC(s []ControlListener, target ControlListener) []ControlListener {
	targetPtr := funcPtr(target)
	next := make([]ControlListener, 0, len(s))
	for _, l := range s {
		if funcPtr(l) != targetPtr {
			next = append(next, l)
		}
	}
	return next
}

func removeFuncA(s []AppDataListener, target AppDataListener) []AppDataListener {
	targetPtr := funcPtr(target)
	next := make([]AppDataListener, 0, len(s))
	for _, l := range s {
		if funcPtr(l) != targetPtr {
			next = append(next, l)
		}
	}
	return next
}

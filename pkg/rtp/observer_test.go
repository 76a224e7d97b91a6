package rtp

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutDataSnapshotIsolatesLateRegistration(t *testing.T) {
	var f fanout
	var calls int32
	l1 := func(*Engine, *Participant, *DataPacket) { atomic.AddInt32(&calls, 1) }
	f.addData(l1)

	snapshot := f.dataSnapshot()

	l2 := func(*Engine, *Participant, *DataPacket) { atomic.AddInt32(&calls, 1) }
	f.addData(l2)

	for _, l := range snapshot {
		l(nil, nil, nil)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFanoutRemoveDataListener(t *testing.T) {
	var f fanout
	var calls int32
	l := func(*Engine, *Participant, *DataPacket) { atomic.AddInt32(&calls, 1) }
	f.addData(l)
	f.removeData(l)

	for _, l := range f.dataSnapshot() {
		l(nil, nil, nil)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFanoutRemoveDataListenerLeavesOthers(t *testing.T) {
	var f fanout
	var calledA, calledB bool
	a := func(*Engine, *Participant, *DataPacket) { calledA = true }
	b := func(*Engine, *Participant, *DataPacket) { calledB = true }
	f.addData(a)
	f.addData(b)
	f.removeData(a)

	for _, l := range f.dataSnapshot() {
		l(nil, nil, nil)
	}
	assert.False(t, calledA)
	assert.True(t, calledB)
}

func TestFanoutClearControlDropsAppDataToo(t *testing.T) {
	var f fanout
	f.addControl(func(*Engine, *CompoundControlPacket) {})
	f.addAppData(func(*Engine, *AppData) {})

	f.clearControl()

	assert.Empty(t, f.controlSnapshot())
	assert.Empty(t, f.appDataSnapshot())
}

type recordingEventListener struct {
	terminated bool
}

func (r *recordingEventListener) ResolvedSSRCConflict(*Engine, uint32, uint32)          {}
func (r *recordingEventListener) ParticipantJoinedFromData(*Engine, *Participant, *DataPacket) {}
func (r *recordingEventListener) ParticipantJoinedFromControl(*Engine, *Participant, SDESChunk) {}
func (r *recordingEventListener) ParticipantDataUpdated(*Engine, *Participant)          {}
func (r *recordingEventListener) ParticipantLeft(*Engine, *Participant)                 {}
func (r *recordingEventListener) SessionTerminated(*Engine, error)                      { r.terminated = true }

func TestFanoutEventListenerAddRemove(t *testing.T) {
	var f fanout
	l := &recordingEventListener{}
	f.addEvent(l)
	assert.Len(t, f.eventSnapshot(), 1)

	f.removeEvent(l)
	assert.Empty(t, f.eventSnapshot())
}

package rtp

import (
	"context"

	"github.com/looplab/fsm"
)

// Lifecycle states (spec.md §4.6).
const (
	StateCreated    = "created"
	StateRunning    = "running"
	StateTerminated = "terminated"
	StateFailed     = "failed"
)

// Lifecycle events.
const (
	eventInit      = "init"
	eventBindFail  = "bind_fail"
	eventTerminate = "terminate"
)

// newLifecycle builds the created→running→terminated (+failed) state
// machine, grounded on the teacher's looplab/fsm wiring in
// pkg/dialog/refer_fsm.go — same construction shape, callbacks omitted
// since the engine drives side effects itself around each transition
// rather than from FSM callbacks.
func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		StateCreated,
		fsm.Events{
			{Name: eventInit, Src: []string{StateCreated}, Dst: StateRunning},
			{Name: eventBindFail, Src: []string{StateCreated}, Dst: StateFailed},
			{Name: eventTerminate, Src: []string{StateRunning}, Dst: StateTerminated},
		},
		nil,
	)
}

// isRunning reports whether the engine's FSM is currently in the running
// state, without needing a context for the (here, callback-less) transition
// machinery.
func (e *Engine) isRunning() bool {
	return e.fsm.Current() == StateRunning
}

// isTerminated reports whether the engine has been terminated.
func (e *Engine) isTerminated() bool {
	return e.fsm.Current() == StateTerminated
}

func (e *Engine) transitionToRunning() error {
	return e.fsm.Event(context.Background(), eventInit)
}

func (e *Engine) transitionToFailed() error {
	return e.fsm.Event(context.Background(), eventBindFail)
}

func (e *Engine) transitionToTerminated() error {
	return e.fsm.Event(context.Background(), eventTerminate)
}

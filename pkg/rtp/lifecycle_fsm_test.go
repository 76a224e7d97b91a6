package rtp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleCreatedToRunning(t *testing.T) {
	fsm := newLifecycle()
	assert.Equal(t, StateCreated, fsm.Current())

	require.NoError(t, fsm.Event(context.Background(), eventInit))
	assert.Equal(t, StateRunning, fsm.Current())
}

func TestLifecycleBindFailureGoesToFailed(t *testing.T) {
	fsm := newLifecycle()
	require.NoError(t, fsm.Event(context.Background(), eventBindFail))
	assert.Equal(t, StateFailed, fsm.Current())

	err := fsm.Event(context.Background(), eventInit)
	assert.Error(t, err)
}

func TestLifecycleRunningToTerminated(t *testing.T) {
	fsm := newLifecycle()
	require.NoError(t, fsm.Event(context.Background(), eventInit))
	require.NoError(t, fsm.Event(context.Background(), eventTerminate))
	assert.Equal(t, StateTerminated, fsm.Current())
}

func TestLifecycleCannotTerminateBeforeRunning(t *testing.T) {
	fsm := newLifecycle()
	err := fsm.Event(context.Background(), eventTerminate)
	assert.Error(t, err)
}

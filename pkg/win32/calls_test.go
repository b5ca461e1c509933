package win32

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWake = errors.New("PostMessage failed")

func TestCallQueueRunsOnWake(t *testing.T) {
	var q callQueue
	done := make(chan struct{})

	ran := false
	err := q.do(func() error {
		ran = true
		return errors.New("RegisterHotKey failed")
	}, func() error {
		go q.run()
		return nil
	}, done)

	require.EqualError(t, err, "RegisterHotKey failed")
	assert.True(t, ran)
	assert.Zero(t, q.len())
}

func TestCallQueueWithdrawsCallWhenWakeFails(t *testing.T) {
	var q callQueue
	done := make(chan struct{})

	ran := false
	err := q.do(func() error {
		ran = true
		return nil
	}, func() error { return errWake }, done)

	require.ErrorIs(t, err, errWake)
	assert.Zero(t, q.len(), "nothing is left to run on a later wake-up")

	q.run()
	assert.False(t, ran)
}

func TestCallQueueReportsCallTakenDespiteWakeFailure(t *testing.T) {
	var q callQueue
	done := make(chan struct{})

	ran := false
	err := q.do(func() error {
		ran = true
		return nil
	}, func() error {
		// another caller's wake-up got there first
		q.run()
		return errWake
	}, done)

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestCallQueueClosed(t *testing.T) {
	var q callQueue
	q.close()

	err := q.do(func() error { return nil }, func() error { return nil }, make(chan struct{}))
	require.ErrorIs(t, err, errReceiverClosed)
}

func TestCallQueueThreadExited(t *testing.T) {
	var q callQueue
	done := make(chan struct{})
	close(done)

	err := q.do(func() error { return nil }, func() error { return nil }, done)
	require.ErrorIs(t, err, errReceiverClosed)
}

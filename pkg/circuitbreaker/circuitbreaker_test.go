package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(Settings{
		Name:             "test",
		FailureThreshold: 3,
		Cooldown:         cooldown,
	})
}

func TestExecutePassesThroughWhileClosed(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StateClosed, cb.State())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	boom := errors.New("publish failed")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	// Rejected without invoking fn while open.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	boom := errors.New("publish failed")

	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	require.NoError(t, cb.Execute(func() error { return nil }))

	// The streak restarted, so two more failures do not trip it.
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenTrialClosesOnSuccess(t *testing.T) {
	cb := newTestBreaker(time.Nanosecond)
	boom := errors.New("publish failed")

	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(time.Millisecond)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenTrialReopensOnFailure(t *testing.T) {
	cb := newTestBreaker(time.Nanosecond)
	boom := errors.New("publish failed")

	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(time.Millisecond)

	err := cb.Execute(func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateOpen, cb.State())
}

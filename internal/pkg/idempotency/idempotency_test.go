package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T) (*StateTracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb), mr
}

func TestStateTracker_ExecOnce(t *testing.T) {
	// Arrange
	tr, _ := newTracker(t)
	ctx := context.Background()
	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	// Act
	first := tr.Exec(ctx, "evt-1", fn, WithStateTTL(time.Hour))
	second := tr.Exec(ctx, "evt-1", fn, WithStateTTL(time.Hour))

	// Assert
	assert.NoError(t, first)
	assert.ErrorIs(t, second, ErrAlreadyCompleted)
	assert.Equal(t, 1, calls)
}

func TestStateTracker_FailureReleasesKey(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()
	boom := errors.New("smtp down")

	err := tr.Exec(ctx, "evt-2", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = tr.Exec(ctx, "evt-2", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestStateTracker_StickyFailure(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	_ = tr.Exec(ctx, "evt-3", func(context.Context) error { return errors.New("x") }, WithStickyFailure())
	err := tr.Exec(ctx, "evt-3", func(context.Context) error { return nil })

	assert.ErrorIs(t, err, ErrAlreadyFailed)
}

func TestStateTracker_InProgressAndExpiry(t *testing.T) {
	tr, mr := newTracker(t)
	ctx := context.Background()

	state, err := tr.Acquire(ctx, "evt-4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, StateNone, state)

	err = tr.Exec(ctx, "evt-4", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyInProgress)

	mr.FastForward(2 * time.Minute)

	err = tr.Exec(ctx, "evt-4", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestStateTracker_InvalidState(t *testing.T) {
	tr, mr := newTracker(t)
	require.NoError(t, mr.Set("idempotency:evt-5", "garbage"))

	_, err := tr.Acquire(context.Background(), "evt-5", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
}

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lockMock struct {
	mock.Mock
}

func (m *lockMock) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type lockerMock struct {
	mock.Mock
}

func (m *lockerMock) Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, bool, error) {
	args := m.Called(ctx, name, ttl)
	l, _ := args.Get(0).(Lock)
	return l, args.Bool(1), args.Error(2)
}

func TestRunner_RecordsSuccess(t *testing.T) {
	r := NewRunner(time.Second)

	var gotID string
	err := r.Run(context.Background(), "parcel-poll", func(ctx context.Context, runID string) (any, error) {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		gotID = runID
		return map[string]int{"items": 3}, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, gotID)

	snap := r.Stats().Snapshot()
	require.Len(t, snap.Jobs, 1)
	js := snap.Jobs[0]
	require.Equal(t, "parcel-poll", js.Job)
	require.Equal(t, int64(1), js.Runs)
	require.Equal(t, int64(0), js.Failures)
	require.Equal(t, gotID, js.LastRunID)
	require.Equal(t, map[string]int{"items": 3}, js.LastReport)
}

func TestRunner_RecordsFailure(t *testing.T) {
	r := NewRunner(time.Second)
	boom := errors.New("boom")

	err := r.Run(context.Background(), "stock-report", func(ctx context.Context, runID string) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	js := r.Stats().Snapshot().Jobs[0]
	require.Equal(t, int64(1), js.Failures)
	require.Equal(t, "boom", js.LastError)
}

func TestRunner_SkipsOverlappingLocalRun(t *testing.T) {
	r := NewRunner(time.Second)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- r.Run(context.Background(), "parcel-poll", func(ctx context.Context, runID string) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	err := r.Run(context.Background(), "parcel-poll", func(ctx context.Context, runID string) (any, error) {
		t.Fatal("must not run")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)

	js := r.Stats().Snapshot().Jobs[0]
	require.Equal(t, int64(1), js.Runs)
	require.Equal(t, int64(1), js.Skipped)
}

func TestRunner_LockHeldElsewhere(t *testing.T) {
	l := &lockerMock{}
	r := NewRunner(time.Second).WithLocker(l, time.Minute)
	l.On("Acquire", mock.Anything, "parcel-report", time.Minute).Return(nil, false, nil).Once()

	called := false
	err := r.Run(context.Background(), "parcel-report", func(ctx context.Context, runID string) (any, error) {
		called = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.False(t, called)
	l.AssertExpectations(t)
}

func TestRunner_LockAcquiredAndReleased(t *testing.T) {
	l := &lockerMock{}
	lk := &lockMock{}
	r := NewRunner(time.Second).WithLocker(l, 0)
	l.On("Acquire", mock.Anything, "parcel-poll", 2*time.Second).Return(lk, true, nil).Once()
	lk.On("Release", mock.Anything).Return(nil).Once()

	require.NoError(t, r.Run(context.Background(), "parcel-poll", func(ctx context.Context, runID string) (any, error) {
		return nil, nil
	}))
	l.AssertExpectations(t)
	lk.AssertExpectations(t)
}

func TestRunner_LockBackendDownStillRuns(t *testing.T) {
	l := &lockerMock{}
	r := NewRunner(time.Second).WithLocker(l, time.Minute)
	l.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil, false, errors.New("dial tcp: refused")).Once()

	called := false
	require.NoError(t, r.Run(context.Background(), "parcel-poll", func(ctx context.Context, runID string) (any, error) {
		called = true
		return nil, nil
	}))
	require.True(t, called)
}

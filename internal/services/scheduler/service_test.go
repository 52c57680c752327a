package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/models"
)

// blockingRunner holds each run open until release is closed
type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context) (*models.RunResult, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return &models.RunResult{RunID: "run_test"}, nil
}

func TestExecute_SkipsOverlappingRun(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, arbor.NewLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, svc.TriggerNow())
	}()

	<-runner.started
	assert.False(t, svc.TriggerNow(), "second trigger is skipped while the first runs")

	close(runner.release)
	wg.Wait()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, 1, svc.Status().Skipped)
}

func TestExecute_RecordsLastError(t *testing.T) {
	runner := newBlockingRunner()
	runner.err = errors.New("portal down")
	close(runner.release)
	svc := NewService(runner, arbor.NewLogger())

	assert.True(t, svc.TriggerNow())

	status := svc.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "portal down", status.LastError)
}

func TestExecute_RecoversFromPanic(t *testing.T) {
	common.CrashLogDir = t.TempDir()
	svc := NewService(panicRunner{}, arbor.NewLogger())
	assert.NotPanics(t, func() { svc.TriggerNow() })

	// the run lock is released after a panic
	assert.True(t, svc.runMu.TryLock())
	svc.runMu.Unlock()
}

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context) (*models.RunResult, error) {
	panic("unexpected")
}

func TestStart_RunOnStart(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release)
	svc := NewService(runner, arbor.NewLogger())

	require.NoError(t, svc.Start(context.Background(), "0 0 * * * *", true))
	defer svc.Stop()

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("startup run did not begin")
	}
	assert.True(t, svc.IsRunning())
	assert.NotNil(t, svc.Status().NextRun)
}

func TestStart_RejectsBadSchedules(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
	}{
		{name: "garbage", schedule: "not a schedule"},
		{name: "every second", schedule: "* * * * * *"},
		{name: "every ten seconds", schedule: "*/10 * * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newBlockingRunner(), arbor.NewLogger())
			assert.Error(t, svc.Start(context.Background(), tt.schedule, false))
			assert.False(t, svc.IsRunning())
		})
	}
}

func TestStart_Twice(t *testing.T) {
	svc := NewService(newBlockingRunner(), arbor.NewLogger())
	require.NoError(t, svc.Start(context.Background(), "@hourly", false))
	defer svc.Stop()

	assert.Error(t, svc.Start(context.Background(), "@hourly", false))
}

func TestStop_CancelsInFlightRun(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, arbor.NewLogger())

	require.NoError(t, svc.Start(context.Background(), "@hourly", true))
	<-runner.started

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	assert.Equal(t, context.Canceled.Error(), svc.Status().LastError)
}

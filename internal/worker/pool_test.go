package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsJobs(t *testing.T) {
	p := NewPool(10)
	p.Start(3)

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(Job{ID: "job", Run: func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		}}))
	}
	wg.Wait()
	p.Stop()

	assert.Equal(t, int32(5), count.Load())
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(1)
	// no workers started: the single slot fills up
	require.NoError(t, p.Submit(Job{ID: "a", Run: func(context.Context) {}}))
	assert.ErrorIs(t, p.Submit(Job{ID: "b", Run: func(context.Context) {}}), ErrQueueFull)

	p.Start(1)
	p.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1)
	p.Start(1)
	p.Stop()
	p.Stop()

	assert.ErrorIs(t, p.Submit(Job{ID: "late", Run: func(context.Context) {}}), ErrPoolStopped)
}

func TestPool_StopCancelsJobContext(t *testing.T) {
	p := NewPool(1)
	p.Start(1)

	started := make(chan struct{})
	canceled := make(chan struct{})
	require.NoError(t, p.Submit(Job{ID: "long", Run: func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
			close(canceled)
		case <-time.After(5 * time.Second):
		}
	}}))

	<-started
	p.Stop()

	select {
	case <-canceled:
	default:
		t.Fatal("job context was not canceled on Stop")
	}
}

func TestPool_RecoversFromPanic(t *testing.T) {
	p := NewPool(2)
	p.Start(1)

	done := make(chan struct{})
	require.NoError(t, p.Submit(Job{ID: "boom", Run: func(context.Context) { panic("boom") }}))
	require.NoError(t, p.Submit(Job{ID: "after", Run: func(context.Context) { close(done) }}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	p.Stop()
}

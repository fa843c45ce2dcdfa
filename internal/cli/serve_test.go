package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dullmace/faux-must-see/internal/core/services"
	"github.com/dullmace/faux-must-see/internal/logging"
)

func TestSweepSessions(t *testing.T) {
	flow := services.NewSessionFlow(nil, nil, nil)
	snap := flow.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepSessions(ctx, flow, time.Millisecond, 0, logging.Component("test"))
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := flow.Snapshot(snap.ID)
		return errors.Is(err, services.ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

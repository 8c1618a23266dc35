package scope

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConcurrentlyStopCancelsAndJoins(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})

	task := Concurrently(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("task never started")
	}

	require.NoError(t, task.Stop())

	select {
	case <-stopped:
	default:
		t.Fatal("task wasn't cancelled before Stop returned")
	}
}

func TestConcurrentlyPropagatesError(t *testing.T) {
	boom := context.Canceled
	task := Concurrently(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, task.Stop(), boom)
}

package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
)

func TestStartDeliversInitialAndChanges(t *testing.T) {
	bus := eventbus.NewLocal()
	defer bus.Close()

	var version atomic.Int64
	got := make(chan int64, 10)

	sub, err := Start(context.Background(), bus, []string{"t.changed"},
		func(context.Context) (int64, error) { return version.Load(), nil },
		func(v int64, err error) {
			assert.NoError(t, err)
			got <- v
		})
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Equal(t, int64(0), receive(t, got))

	version.Store(1)
	require.NoError(t, bus.Publish("t.changed", nil))
	assert.Equal(t, int64(1), receive(t, got))
}

func TestCancelStopsCallbacks(t *testing.T) {
	bus := eventbus.NewLocal()
	defer bus.Close()

	var calls atomic.Int64
	sub, err := Start(context.Background(), bus, []string{"t.changed"},
		func(context.Context) (struct{}, error) { return struct{}{}, nil },
		func(struct{}, error) { calls.Add(1) })
	require.NoError(t, err)

	// Fire signals while cancelling to race the worker.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				bus.Publish("t.changed", nil)
			}
		}
	}()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, sub.Cancel())
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	close(stop)

	assert.Equal(t, after, calls.Load(), "callback ran after Cancel returned")
	assert.NoError(t, sub.Cancel(), "second Cancel must be safe")

	select {
	case <-sub.Done():
	default:
		t.Error("Done not closed after Cancel")
	}
}

func TestCancelAbortsSlowLoad(t *testing.T) {
	bus := eventbus.NewLocal()
	defer bus.Close()

	started := make(chan struct{})
	var delivered atomic.Bool
	sub, err := Start(context.Background(), bus, nil,
		func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(int, error) { delivered.Store(true) })
	require.NoError(t, err)

	<-started
	done := make(chan struct{})
	go func() {
		sub.Cancel()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel blocked on an in-flight load")
	}
	assert.False(t, delivered.Load())
}

func TestParentContextStopsWatcher(t *testing.T) {
	bus := eventbus.NewLocal()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := Start(ctx, bus, []string{"x"},
		func(context.Context) (int, error) { return 1, nil },
		func(int, error) {})
	require.NoError(t, err)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop with its parent context")
	}
	sub.Cancel()
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		var zero T
		return zero
	}
}

// Package watch turns bus change signals into a stream of fresh snapshots.
//
// A watcher subscribes to one or more subjects, loads the current snapshot,
// hands it to a callback and reloads after every signal. Signals that arrive
// while a load is running are coalesced into one reload.
package watch

import (
	"context"
	"errors"
	"sync"

	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
)

// Subscription is a running watcher.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	subs   []eventbus.Subscription
	once   sync.Once
	err    error
}

// Start begins watching. fn receives the first snapshot right away and one
// more after each change. fn runs on the watcher goroutine and must not call
// Cancel on its own subscription.
//
// The watcher also stops when ctx is done.
func Start[T any](ctx context.Context, bus eventbus.Bus, subjects []string, load func(context.Context) (T, error), fn func(T, error)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	signal := make(chan struct{}, 1)
	signal <- struct{}{}
	notify := func(string, []byte) {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	s := &Subscription{cancel: cancel, done: make(chan struct{})}
	for _, subj := range subjects {
		sub, err := bus.Subscribe(subj, notify)
		if err != nil {
			cancel()
			close(s.done)
			return nil, errors.Join(err, s.unsubscribe())
		}
		s.subs = append(s.subs, sub)
	}

	go func() {
		defer close(s.done)
		run(ctx, signal, load, fn)
	}()
	return s, nil
}

func run[T any](ctx context.Context, signal <-chan struct{}, load func(context.Context) (T, error), fn func(T, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
		}

		v, err := load(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(v, err)
	}
}

func (s *Subscription) unsubscribe() error {
	var errs []error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cancel stops the watcher and waits for it to exit. No callback runs after
// Cancel returns. Calling it more than once is safe.
func (s *Subscription) Cancel() error {
	s.once.Do(func() {
		s.err = s.unsubscribe()
		s.cancel()
		<-s.done
	})
	return s.err
}

// Done is closed once the watcher has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

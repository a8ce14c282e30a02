package eventbus

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("eventbus: closed")

type message struct {
	subject string
	data    []byte
}

// Local is an in-process Bus. Each subscription has its own goroutine and
// unbounded queue, so Publish never blocks and per-subscription order is
// preserved.
type Local struct {
	mu     sync.RWMutex
	subs   map[*localSub]struct{}
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[*localSub]struct{})}
}

type localSub struct {
	bus     *Local
	pattern string
	h       Handler

	mu      sync.Mutex
	pending []message
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (b *Local) Publish(subject string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	for s := range b.subs {
		if Match(s.pattern, subject) {
			s.enqueue(message{subject: subject, data: append([]byte(nil), data...)})
		}
	}
	return nil
}

func (b *Local) Subscribe(subject string, h Handler) (Subscription, error) {
	s := &localSub{
		bus:     b,
		pattern: subject,
		h:       h,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.subs[s] = struct{}{}
	go s.run()
	return s, nil
}

func (b *Local) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*localSub]struct{})
	b.closed = true
	b.mu.Unlock()

	for s := range subs {
		s.stop()
	}
	return nil
}

func (s *localSub) enqueue(m message) {
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *localSub) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, m := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			s.h(m.subject, m.data)
		}
	}
}

func (s *localSub) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *localSub) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()

	s.stop()
	return nil
}

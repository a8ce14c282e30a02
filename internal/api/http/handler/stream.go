package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/pkg/watch"
)

const defaultKeepAlive = 25 * time.Second

// writeEvent writes one server-sent event and flushes it.
func writeEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

func writePing(w *bufio.Writer) error {
	if _, err := w.WriteString(": ping\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// latest keeps only the newest snapshot; the stream writer skips stale ones.
type latest[T any] struct {
	values chan T
	errs   chan error
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{values: make(chan T, 1), errs: make(chan error, 1)}
}

func (l *latest[T]) push(v T, err error) {
	if err != nil {
		select {
		case l.errs <- err:
		default:
		}
		return
	}
	for {
		select {
		case l.values <- v:
			return
		default:
		}
		select {
		case <-l.values:
		default:
		}
	}
}

// serveStream starts a subscription and relays its snapshots as "snapshot"
// events until the client goes away or the subscription ends. Errors from
// start are returned before any byte is written so callers can map them.
func serveStream[T any](
	c fiber.Ctx,
	keepAlive time.Duration,
	start func(ctx context.Context, fn func(T, error)) (*watch.Subscription, error),
) error {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	// the stream outlives the handler call
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))
	buf := newLatest[T]()

	sub, err := start(ctx, buf.push)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer func() {
			if err := sub.Cancel(); err != nil {
				slog.Warn("stream unsubscribe failed", "error", err)
			}
		}()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			var err error
			select {
			case v := <-buf.values:
				err = writeEvent(w, "snapshot", v)
			case loadErr := <-buf.errs:
				slog.Warn("stream load failed", "error", loadErr)
				_ = writeEvent(w, "error", fiber.Map{"error": "stream interrupted"})
				return
			case <-ticker.C:
				err = writePing(w)
			case <-sub.Done():
				return
			}
			if err != nil {
				// client disconnected
				return
			}
		}
	})
}

package eventbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/teleclinic_backend/pkg/constants"
)

// NATS is a Bus over a core NATS connection.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(nc *nats.Conn) *NATS {
	return &NATS{nc: nc}
}

// Connect dials url with reconnects enabled and logs connection state changes.
func Connect(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name(constants.AppName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("eventbus: nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("eventbus: nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATS(nc), nil
}

func (b *NATS) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

func (b *NATS) Subscribe(subject string, h Handler) (Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		h(m.Subject, m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Close drains pending messages before closing the connection.
func (b *NATS) Close() error {
	return b.nc.Drain()
}

// Conn exposes the underlying connection for health checks.
func (b *NATS) Conn() *nats.Conn { return b.nc }

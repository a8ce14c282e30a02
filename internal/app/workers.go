package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/booking"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/pkg/email"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/sms"
)

// WorkerModule registers all event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

const notifyTimeout = 30 * time.Second

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Bus      eventbus.Bus
	Bookings booking.Service
	Doctors  doctor.Service
	SMS      *sms.Client
	Email    *email.Client
}

func RegisterWorkers(p WorkerParams) {
	n := &BookingNotifier{
		Bookings: p.Bookings,
		Doctors:  p.Doctors,
		SMS:      p.SMS,
		Email:    p.Email,
	}
	var subs []eventbus.Subscription

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			subs, err = n.Start(p.Bus)
			return err
		},
		OnStop: func(ctx context.Context) error {
			var errs []error
			for _, s := range subs {
				errs = append(errs, s.Unsubscribe())
			}
			return errors.Join(errs...)
		},
	})
}

// ---------------------------------------------------------------------------
// booking notifications
// ---------------------------------------------------------------------------

type BookingSMS interface {
	SendBookingConfirmation(ctx context.Context, phoneNumber, bookingNumber, date, time string) error
	SendBookingCancellation(ctx context.Context, phoneNumber, bookingNumber, date, time string) error
}

type BookingMailer interface {
	Send(ctx context.Context, m email.Message) error
	Enabled() bool
	AppName() string
}

// BookingNotifier tells patients about their bookings over SMS and email.
// Failures are logged and never retried.
type BookingNotifier struct {
	Bookings booking.Service
	Doctors  doctor.Service
	SMS      BookingSMS
	Email    BookingMailer
}

// Start subscribes to booking events. The caller unsubscribes on shutdown.
func (n *BookingNotifier) Start(bus eventbus.Bus) ([]eventbus.Subscription, error) {
	created, err := bus.Subscribe(eventbus.BookingCreatedAll, n.handleCreated)
	if err != nil {
		return nil, err
	}
	status, err := bus.Subscribe(eventbus.BookingStatusAll, n.handleStatus)
	if err != nil {
		_ = created.Unsubscribe()
		return nil, err
	}
	return []eventbus.Subscription{created, status}, nil
}

func decodeEvent(subject string, data []byte) (booking.Event, bool) {
	var ev booking.Event
	if err := json.Unmarshal(data, &ev); err == nil && ev.BookingID != uuid.Nil {
		return ev, true
	}
	id, err := uuid.Parse(eventbus.LastToken(subject))
	if err != nil {
		return booking.Event{}, false
	}
	return booking.Event{BookingID: id}, true
}

func (n *BookingNotifier) load(ctx context.Context, subject string, data []byte) (*repo.Booking, string, bool) {
	ev, valid := decodeEvent(subject, data)
	if !valid {
		slog.Warn("sms_worker: malformed booking event", "subject", subject)
		return nil, "", false
	}
	b, err := n.Bookings.Load(ctx, ev.BookingID)
	if err != nil {
		slog.Warn("sms_worker: booking not found", "id", ev.BookingID, "err", err)
		return nil, "", false
	}

	doctorName := ""
	if n.Doctors != nil {
		if d, err := n.Doctors.Get(ctx, b.DoctorID); err == nil {
			doctorName = d.Name
		}
	}
	return b, doctorName, true
}

func (n *BookingNotifier) handleCreated(subject string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	b, doctorName, found := n.load(ctx, subject, data)
	if !found {
		return
	}

	if n.SMS != nil {
		if err := n.SMS.SendBookingConfirmation(ctx, b.PatientMobile, b.BookingNumber, b.Date, b.Time); err != nil {
			slog.Warn("sms_worker: confirmation failed", "booking", b.BookingNumber, "err", err)
		}
	}
	n.mail(ctx, b, email.BuildBookingConfirmationEmail, doctorName)
}

func (n *BookingNotifier) handleStatus(subject string, data []byte) {
	ev, valid := decodeEvent(subject, data)
	// only cancellations are announced
	if valid && ev.Status != "" && ev.Status != repo.BookingCancelled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	b, doctorName, found := n.load(ctx, subject, data)
	if !found || b.Status != repo.BookingCancelled {
		return
	}

	if n.SMS != nil {
		if err := n.SMS.SendBookingCancellation(ctx, b.PatientMobile, b.BookingNumber, b.Date, b.Time); err != nil {
			slog.Warn("sms_worker: cancellation failed", "booking", b.BookingNumber, "err", err)
		}
	}
	n.mail(ctx, b, email.BuildBookingCancellationEmail, doctorName)
}

func (n *BookingNotifier) mail(ctx context.Context, b *repo.Booking, build func(email.BookingEmailData) email.Message, doctorName string) {
	if n.Email == nil || !n.Email.Enabled() || b.PatientEmail == "" {
		return
	}
	msg := build(email.BookingEmailData{
		PatientName:   b.PatientName,
		Email:         b.PatientEmail,
		DoctorName:    doctorName,
		BookingNumber: b.BookingNumber,
		Date:          b.Date,
		Time:          b.Time,
		Locale:        b.Locale,
		AppName:       n.Email.AppName(),
	})
	if err := n.Email.Send(ctx, msg); err != nil {
		slog.Warn("email_worker: send failed", "booking", b.BookingNumber, "err", err)
	}
}

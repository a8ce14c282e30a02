package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/memory"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/booking"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/pkg/email"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

type recorder struct {
	mu    sync.Mutex
	sms   []string
	mails []email.Message
}

func (r *recorder) SendBookingConfirmation(_ context.Context, phone, number, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sms = append(r.sms, "confirm:"+phone+":"+number)
	return nil
}

func (r *recorder) SendBookingCancellation(_ context.Context, phone, number, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sms = append(r.sms, "cancel:"+phone+":"+number)
	return nil
}

func (r *recorder) Send(_ context.Context, m email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mails = append(r.mails, m)
	return nil
}

func (r *recorder) Enabled() bool   { return true }
func (r *recorder) AppName() string { return "Teleclinic" }

func (r *recorder) snapshot() ([]string, []email.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sms...), append([]email.Message(nil), r.mails...)
}

func TestBookingNotifier(t *testing.T) {
	ctx := context.Background()
	db := memory.NewClient()
	bus := eventbus.NewLocal()
	t.Cleanup(func() { bus.Close() })

	d := &repo.Doctor{
		ID:                  uuid.New(),
		Name:                "Dr. Rahimi",
		WorkingHours:        repo.WorkingHours{"monday": {Enabled: true, Start: "09:00", End: "12:00"}},
		AppointmentDuration: 30,
	}
	require.NoError(t, db.Doctor.Create(ctx, d))

	cfg := booking.DefaultConfig()
	cfg.Now = func() time.Time { return time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC) }
	bookings := booking.New(db, bus, nil, cfg)

	rec := &recorder{}
	n := &BookingNotifier{Bookings: bookings, Doctors: doctor.New(db), SMS: rec, Email: rec}
	subs, err := n.Start(bus)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
	})

	b, err := bookings.Create(ctx, nil, booking.CreateRequest{
		DoctorID:      d.ID,
		PatientName:   "Sara",
		PatientMobile: "09121234567",
		PatientEmail:  "sara@example.com",
		Date:          "2030-01-14",
		Time:          "10:00",
		Locale:        "en",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sms, mails := rec.snapshot()
		return len(sms) == 1 && len(mails) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sms, mails := rec.snapshot()
	assert.Equal(t, "confirm:+989121234567:"+b.BookingNumber, sms[0])
	assert.Contains(t, mails[0].TextBody, "Dr. Rahimi")
	assert.Equal(t, []string{"sara@example.com"}, mails[0].To)

	admin := reqctx.Session{UserID: uuid.New(), Role: reqctx.RoleAdmin}
	_, err = bookings.UpdateStatus(ctx, admin, b.ID, repo.BookingConfirmed)
	require.NoError(t, err)
	_, err = bookings.UpdateStatus(ctx, admin, b.ID, repo.BookingCancelled)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sms, _ := rec.snapshot()
		return len(sms) == 2
	}, 2*time.Second, 10*time.Millisecond)

	sms, mails = rec.snapshot()
	assert.Equal(t, "cancel:+989121234567:"+b.BookingNumber, sms[1])
	require.Len(t, mails, 2)
	assert.Contains(t, mails[1].Subject, "cancelled")
}

func TestDecodeEvent(t *testing.T) {
	id := uuid.New()

	ev, ok := decodeEvent("teleclinic.booking.created."+id.String(), nil)
	require.True(t, ok)
	assert.Equal(t, id, ev.BookingID)

	ev, ok = decodeEvent("x", []byte(`{"booking_id":"`+id.String()+`","status":"cancelled"}`))
	require.True(t, ok)
	assert.Equal(t, repo.BookingCancelled, ev.Status)

	_, ok = decodeEvent("teleclinic.booking.created.nope", []byte("{}"))
	assert.False(t, ok)
}

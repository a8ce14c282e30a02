package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/memory"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

func newTestService(t *testing.T, now time.Time) (Service, *repo.Client, *repo.Doctor) {
	t.Helper()

	db := memory.NewClient()
	d := &repo.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Example",
		WorkingHours: repo.WorkingHours{
			"monday":  {Enabled: true, Start: "09:00", End: "11:00"},
			"tuesday": {Enabled: false, Start: "09:00", End: "11:00"},
		},
		AppointmentDuration: 30,
	}
	require.NoError(t, db.Doctor.Create(context.Background(), d))

	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return now }
	return New(db, cfg, nil), db, d
}

func TestUpcomingDaysStartsToday(t *testing.T) {
	now := time.Date(2030, 1, 7, 9, 10, 0, 0, time.UTC)
	svc, db, d := newTestService(t, now)
	ctx := context.Background()

	_, err := db.Booking.CreateIfAbsent(ctx, &repo.Booking{
		ID: uuid.New(), DoctorID: d.ID, Date: "2030-01-07", Time: "10:00", Status: repo.BookingPending,
	})
	require.NoError(t, err)

	days, err := svc.UpcomingDays(ctx, d.ID, 0)
	require.NoError(t, err)
	require.Len(t, days, DefaultHorizonDays)
	assert.Equal(t, "2030-01-07", days[0].Date)
	assert.Equal(t, "2030-01-20", days[len(days)-1].Date)

	// 09:00 already started, 10:00 is booked
	assert.Equal(t, []SlotAvailability{
		{"09:00", false}, {"09:30", true}, {"10:00", false}, {"10:30", true},
	}, days[0].Availability)
	assert.Equal(t, []string{"10:00"}, days[0].BookedTimes)
	assert.Empty(t, days[1].Slots)
	assert.Len(t, days[7].Slots, 4)
}

func TestUpcomingDaysHorizonBounds(t *testing.T) {
	svc, _, d := newTestService(t, time.Now())

	_, err := svc.UpcomingDays(context.Background(), d.ID, 61)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
	_, err = svc.UpcomingDays(context.Background(), d.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = svc.UpcomingDays(context.Background(), uuid.New(), 3)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestDayAvailability(t *testing.T) {
	svc, _, d := newTestService(t, time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC))

	day, err := svc.DayAvailability(context.Background(), d.ID, "2030-01-14")
	require.NoError(t, err)
	assert.Equal(t, "monday", day.Weekday)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, day.Slots)
	for _, a := range day.Availability {
		assert.True(t, a.Available, a.Time)
	}

	_, err = svc.DayAvailability(context.Background(), d.ID, "14/01/2030")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDayAvailabilityPastDate(t *testing.T) {
	svc, _, d := newTestService(t, time.Date(2030, 1, 15, 8, 0, 0, 0, time.UTC))

	day, err := svc.DayAvailability(context.Background(), d.ID, "2030-01-14")
	require.NoError(t, err)
	require.Len(t, day.Slots, 4)
	for _, a := range day.Availability {
		assert.False(t, a.Available, "%s on a past day", a.Time)
	}
}

func TestDayAvailabilityUsesBookingsFinder(t *testing.T) {
	db := memory.NewClient()
	d := &repo.Doctor{
		ID:                  uuid.New(),
		WorkingHours:        repo.WorkingHours{"monday": {Enabled: true, Start: "09:00", End: "10:00"}},
		AppointmentDuration: 30,
	}
	require.NoError(t, db.Doctor.Create(context.Background(), d))
	finder := &fakeFinder{booked: map[string][]string{"2030-01-14": {"09:00"}}}

	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC) }
	svc := New(db, cfg, finder)

	day, err := svc.DayAvailability(context.Background(), d.ID, "2030-01-14")
	require.NoError(t, err)
	assert.Equal(t, []SlotAvailability{{"09:00", false}, {"09:30", true}}, day.Availability)
	assert.Equal(t, []string{"2030-01-14"}, finder.calls)
}

func TestSaveTemplate(t *testing.T) {
	svc, _, d := newTestService(t, time.Now())
	ctx := context.Background()
	owner := reqctx.Session{UserID: d.ID, Role: reqctx.RoleDoctor}

	t.Run("normalizes and overwrites", func(t *testing.T) {
		got, err := svc.SaveTemplate(ctx, owner, d.ID, SaveTemplateRequest{
			WorkingHours: repo.WorkingHours{"Friday": {Enabled: true, Start: "8:00", End: "12:00"}},
		})
		require.NoError(t, err)
		assert.Equal(t, DefaultDurationMinutes, got.AppointmentDuration)

		tmpl, err := svc.GetTemplate(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, repo.WorkingHours{"friday": {Enabled: true, Start: "08:00", End: "12:00"}}, tmpl.WorkingHours)
	})

	t.Run("admin may save", func(t *testing.T) {
		admin := reqctx.Session{UserID: uuid.New(), Role: reqctx.RoleAdmin}
		_, err := svc.SaveTemplate(ctx, admin, d.ID, SaveTemplateRequest{AppointmentDuration: 20})
		assert.NoError(t, err)
	})

	t.Run("other doctor is forbidden", func(t *testing.T) {
		other := reqctx.Session{UserID: uuid.New(), Role: reqctx.RoleDoctor}
		_, err := svc.SaveTemplate(ctx, other, d.ID, SaveTemplateRequest{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	invalid := map[string]SaveTemplateRequest{
		"unknown weekday": {WorkingHours: repo.WorkingHours{"funday": {}}},
		"malformed time":  {WorkingHours: repo.WorkingHours{"monday": {Enabled: true, Start: "25:00", End: "26:00"}}},
		"start after end": {WorkingHours: repo.WorkingHours{"monday": {Enabled: true, Start: "12:00", End: "09:00"}}},
		"short duration":  {AppointmentDuration: 4},
		"long duration":   {AppointmentDuration: 241},
	}
	for name, req := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveTemplate(ctx, owner, d.ID, req)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestGetTemplateLegacyFallback(t *testing.T) {
	db := memory.NewClient()
	d := &repo.Doctor{
		ID:             uuid.New(),
		LegacySchedule: repo.WorkingHours{"sunday": {Enabled: true, Start: "10:00", End: "12:00"}},
	}
	require.NoError(t, db.Doctor.Create(context.Background(), d))

	svc := New(db, DefaultConfig(), nil)
	tmpl, err := svc.GetTemplate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.LegacySchedule, tmpl.WorkingHours)
	assert.Equal(t, DefaultDurationMinutes, tmpl.AppointmentDuration)
}

package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

// 2030-01-07 is a Monday.
var monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func weekdayHours(start, end string) repo.WorkingHours {
	return repo.WorkingHours{"monday": {Enabled: true, Start: start, End: end}}
}

func TestGenerateSlotsForDate(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     repo.WorkingHours
		duration int
		want     []string
	}{
		{
			name:     "stops before end",
			tmpl:     weekdayHours("09:00", "09:50"),
			duration: 30,
			want:     []string{"09:00", "09:30"},
		},
		{
			name:     "hour rollover",
			tmpl:     weekdayHours("09:45", "11:00"),
			duration: 45,
			want:     []string{"09:45", "10:30"},
		},
		{
			name:     "disabled day",
			tmpl:     repo.WorkingHours{"monday": {Enabled: false, Start: "09:00", End: "17:00"}},
			duration: 30,
			want:     []string{},
		},
		{
			name:     "absent day",
			tmpl:     repo.WorkingHours{"tuesday": {Enabled: true, Start: "09:00", End: "17:00"}},
			duration: 30,
			want:     []string{},
		},
		{
			name:     "malformed start",
			tmpl:     weekdayHours("9am", "17:00"),
			duration: 30,
			want:     []string{},
		},
		{
			name:     "start after end",
			tmpl:     weekdayHours("17:00", "09:00"),
			duration: 30,
			want:     []string{},
		},
		{
			name:     "zero duration uses default",
			tmpl:     weekdayHours("09:00", "10:00"),
			duration: 0,
			want:     []string{"09:00", "09:30"},
		},
		{
			name:     "single digit hour",
			tmpl:     weekdayHours("9:00", "10:00"),
			duration: 60,
			want:     []string{"09:00"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateSlotsForDate(tc.tmpl, monday, tc.duration))
		})
	}
}

func TestGenerateSlotsFullDay(t *testing.T) {
	slots := GenerateSlotsForDate(weekdayHours("09:00", "17:00"), monday, 30)

	require.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "16:30", slots[len(slots)-1])
	assert.NotContains(t, slots, "17:00")
}

func TestMarkBookedConflicts(t *testing.T) {
	got := MarkBookedConflicts([]string{"09:00", "09:30", "10:00"}, []string{"09:30", "12:00"})

	assert.Equal(t, []SlotAvailability{
		{Time: "09:00", Available: true},
		{Time: "09:30", Available: false},
		{Time: "10:00", Available: true},
	}, got)
	assert.Empty(t, MarkBookedConflicts(nil, []string{"09:00"}))
}

type fakeFinder struct {
	mu     sync.Mutex
	booked map[string][]string
	calls  []string
	err    error
}

func (f *fakeFinder) BookedTimes(_ context.Context, _ uuid.UUID, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	if f.err != nil {
		return nil, f.err
	}
	return f.booked[date], nil
}

func TestGenerateUpcomingDays(t *testing.T) {
	tmpl := repo.WorkingHours{
		"monday":    {Enabled: true, Start: "09:00", End: "10:00"},
		"wednesday": {Enabled: true, Start: "14:00", End: "15:00"},
	}
	finder := &fakeFinder{booked: map[string][]string{"2030-01-07": {"09:30"}}}

	days, err := GenerateUpcomingDays(context.Background(), finder, uuid.New(), tmpl, 30, monday, 7)
	require.NoError(t, err)
	require.Len(t, days, 7)

	for i, d := range days {
		assert.Equal(t, monday.AddDate(0, 0, i).Format("2006-01-02"), d.Date)
	}
	assert.Equal(t, "monday", days[0].Weekday)
	assert.Equal(t, []string{"09:00", "09:30"}, days[0].Slots)
	assert.Equal(t, []SlotAvailability{{"09:00", true}, {"09:30", false}}, days[0].Availability)
	assert.Equal(t, []string{"14:00", "14:30"}, days[2].Slots)
	assert.Empty(t, days[1].Slots)
	assert.NotNil(t, days[1].Availability)

	// closed days are never looked up
	assert.ElementsMatch(t, []string{"2030-01-07", "2030-01-09"}, finder.calls)
}

func TestGenerateUpcomingDaysLookupError(t *testing.T) {
	boom := errors.New("boom")
	finder := &fakeFinder{err: boom}

	_, err := GenerateUpcomingDays(context.Background(), finder, uuid.New(), weekdayHours("09:00", "10:00"), 30, monday, 14)
	assert.ErrorIs(t, err, boom)
}

func TestCloseStartedSlots(t *testing.T) {
	day := DaySchedule{
		Date:         "2030-01-07",
		Availability: MarkBookedConflicts([]string{"09:00", "09:30", "10:00"}, nil),
	}
	closeStartedSlots(&day, time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC))

	assert.Equal(t, []bool{false, false, true}, []bool{
		day.Availability[0].Available, day.Availability[1].Available, day.Availability[2].Available,
	})

	other := DaySchedule{Date: "2030-01-08", Availability: MarkBookedConflicts([]string{"09:00"}, nil)}
	closeStartedSlots(&other, time.Date(2030, 1, 7, 23, 0, 0, 0, time.UTC))
	assert.True(t, other.Availability[0].Available)

	past := DaySchedule{Date: "2030-01-06", Availability: MarkBookedConflicts([]string{"09:00", "23:30"}, nil)}
	closeStartedSlots(&past, time.Date(2030, 1, 7, 0, 5, 0, 0, time.UTC))
	assert.Equal(t, []SlotAvailability{{"09:00", false}, {"23:30", false}}, past.Availability)
}

package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/pkg/timeofday"
)

const (
	DefaultDurationMinutes = 30
	DefaultHorizonDays     = 14

	// lookupConcurrency bounds parallel booked-time queries per calendar.
	lookupConcurrency = 4
)

type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type DaySchedule struct {
	Date         string             `json:"date"`
	Weekday      string             `json:"weekday"`
	Slots        []string           `json:"slots"`
	BookedTimes  []string           `json:"booked_times"`
	Availability []SlotAvailability `json:"availability"`
}

// BookedTimesFinder is the slice of the booking store the calendar needs.
type BookedTimesFinder interface {
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
}

// GenerateSlotsForDate lists the "HH:MM" start times a template offers on
// date's weekday. Slots start at the day's start and advance by
// durationMinutes while the current time is before the day's end. A closed
// day, an absent day or malformed hours yield an empty result.
func GenerateSlotsForDate(tmpl repo.WorkingHours, date time.Time, durationMinutes int) []string {
	slots := []string{}

	day, ok := tmpl[timeofday.WeekdayName(date.Weekday())]
	if !ok || !day.Enabled {
		return slots
	}
	start, err := timeofday.Parse(day.Start)
	if err != nil {
		return slots
	}
	end, err := timeofday.Parse(day.End)
	if err != nil {
		return slots
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	for cur := start; cur < end; cur = cur.Add(durationMinutes) {
		slots = append(slots, cur.String())
	}
	return slots
}

// MarkBookedConflicts pairs each slot with whether it is still free.
func MarkBookedConflicts(slots, bookedTimes []string) []SlotAvailability {
	booked := lo.Keyify(bookedTimes)
	return lo.Map(slots, func(s string, _ int) SlotAvailability {
		_, taken := booked[s]
		return SlotAvailability{Time: s, Available: !taken}
	})
}

// GenerateUpcomingDays builds horizonDays consecutive day schedules starting
// at from. Booked times are fetched concurrently; any lookup error fails the
// whole calendar.
func GenerateUpcomingDays(
	ctx context.Context,
	finder BookedTimesFinder,
	doctorID uuid.UUID,
	tmpl repo.WorkingHours,
	durationMinutes int,
	from time.Time,
	horizonDays int,
) ([]DaySchedule, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	days := make([]DaySchedule, horizonDays)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	for i := range days {
		date := from.AddDate(0, 0, i)
		slots := GenerateSlotsForDate(tmpl, date, durationMinutes)
		days[i] = DaySchedule{
			Date:    timeofday.FormatDate(date),
			Weekday: timeofday.WeekdayName(date.Weekday()),
			Slots:   slots,
		}
		if len(slots) == 0 {
			days[i].BookedTimes = []string{}
			days[i].Availability = []SlotAvailability{}
			continue
		}

		g.Go(func() error {
			booked, err := finder.BookedTimes(gctx, doctorID, days[i].Date)
			if err != nil {
				return fmt.Errorf("booked times for %s: %w", days[i].Date, err)
			}
			days[i].BookedTimes = booked
			days[i].Availability = MarkBookedConflicts(slots, booked)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}

// closeStartedSlots marks slots that have already begun as unavailable:
// every slot of a past day, and today's slots up to now.
func closeStartedSlots(day *DaySchedule, now time.Time) {
	today := timeofday.FormatDate(now)
	if day.Date > today {
		return
	}
	current := timeofday.Of(now)
	for i, a := range day.Availability {
		c, err := timeofday.Parse(a.Time)
		if day.Date < today || (err == nil && c <= current) {
			day.Availability[i].Available = false
		}
	}
}

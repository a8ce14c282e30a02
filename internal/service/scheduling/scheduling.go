package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
	"github.com/Alijeyrad/teleclinic_backend/pkg/timeofday"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Template struct {
	WorkingHours        repo.WorkingHours `json:"working_hours"`
	AppointmentDuration int               `json:"appointment_duration"`
}

type SaveTemplateRequest struct {
	WorkingHours        repo.WorkingHours `json:"working_hours"`
	AppointmentDuration int               `json:"appointment_duration"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	GetTemplate(ctx context.Context, doctorID uuid.UUID) (*Template, error)
	SaveTemplate(ctx context.Context, sess reqctx.Session, doctorID uuid.UUID, req SaveTemplateRequest) (*Template, error)

	DayAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*DaySchedule, error)
	// UpcomingDays returns the calendar from today; horizonDays 0 uses the
	// configured horizon.
	UpcomingDays(ctx context.Context, doctorID uuid.UUID, horizonDays int) ([]DaySchedule, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	db     *repo.Client
	booked BookedTimesFinder
	cfg    Config
}

// New builds the scheduling service. Booked times come from bookings, or
// straight from the booking store when bookings is nil.
func New(db *repo.Client, cfg Config, bookings BookedTimesFinder) Service {
	if cfg.Location == nil {
		cfg.Location = DefaultConfig().Location
	}
	if cfg.Now == nil {
		cfg.Now = DefaultConfig().Now
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = DefaultDurationMinutes
	}
	if bookings == nil {
		bookings = db.Booking
	}
	return &schedulingService{db: db, booked: bookings, cfg: cfg}
}

func (s *schedulingService) doctor(ctx context.Context, id uuid.UUID) (*repo.Doctor, error) {
	d, err := s.db.Doctor.Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *schedulingService) duration(d *repo.Doctor) int {
	if d.AppointmentDuration > 0 {
		return d.AppointmentDuration
	}
	return s.cfg.DefaultDuration
}

func (s *schedulingService) GetTemplate(ctx context.Context, doctorID uuid.UUID) (*Template, error) {
	d, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	hours := d.Hours()
	if hours == nil {
		hours = repo.WorkingHours{}
	}
	return &Template{WorkingHours: hours, AppointmentDuration: s.duration(d)}, nil
}

func (s *schedulingService) SaveTemplate(ctx context.Context, sess reqctx.Session, doctorID uuid.UUID, req SaveTemplateRequest) (*Template, error) {
	if !sess.IsAdmin() && !(sess.IsDoctor() && sess.UserID == doctorID) {
		return nil, ErrForbidden
	}

	hours, err := NormalizeTemplate(req.WorkingHours)
	if err != nil {
		return nil, err
	}
	duration := req.AppointmentDuration
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}
	if duration < 5 || duration > 240 {
		return nil, fmt.Errorf("%w: appointment_duration must be between 5 and 240 minutes", ErrInvalidTemplate)
	}

	if err := s.db.Doctor.UpdateSchedule(ctx, doctorID, hours, duration); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("save template: %w", err)
	}
	return &Template{WorkingHours: hours, AppointmentDuration: duration}, nil
}

// NormalizeTemplate validates a template and returns it with lower-case
// weekday keys and zero-padded times.
func NormalizeTemplate(in repo.WorkingHours) (repo.WorkingHours, error) {
	out := make(repo.WorkingHours, len(in))
	for name, day := range in {
		wd, ok := timeofday.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidTemplate, name)
		}
		key := timeofday.WeekdayName(wd)

		var start, end timeofday.Clock
		var err error
		if day.Start != "" || day.Enabled {
			if start, err = timeofday.Parse(day.Start); err != nil {
				return nil, fmt.Errorf("%w: %s start: %v", ErrInvalidTemplate, key, err)
			}
			day.Start = start.String()
		}
		if day.End != "" || day.Enabled {
			if end, err = timeofday.Parse(day.End); err != nil {
				return nil, fmt.Errorf("%w: %s end: %v", ErrInvalidTemplate, key, err)
			}
			day.End = end.String()
		}
		if day.Enabled && start >= end {
			return nil, fmt.Errorf("%w: %s start must be before end", ErrInvalidTemplate, key)
		}
		out[key] = day
	}
	return out, nil
}

func (s *schedulingService) parseDate(date string) (time.Time, error) {
	d, err := timeofday.ParseDate(strings.TrimSpace(date), s.cfg.Location)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (s *schedulingService) DayAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*DaySchedule, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	d, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	days, err := GenerateUpcomingDays(ctx, s.booked, doctorID, d.Hours(), s.duration(d), day, 1)
	if err != nil {
		return nil, fmt.Errorf("day availability: %w", err)
	}
	closeStartedSlots(&days[0], s.cfg.Now().In(s.cfg.Location))
	return &days[0], nil
}

func (s *schedulingService) UpcomingDays(ctx context.Context, doctorID uuid.UUID, horizonDays int) ([]DaySchedule, error) {
	if horizonDays == 0 {
		horizonDays = s.cfg.HorizonDays
	}
	if horizonDays < 1 || horizonDays > 60 {
		return nil, ErrInvalidHorizon
	}
	d, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Now().In(s.cfg.Location)
	days, err := GenerateUpcomingDays(ctx, s.booked, doctorID, d.Hours(), s.duration(d),
		timeofday.StartOfDay(now, s.cfg.Location), horizonDays)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("upcoming days: %w", err)
	}
	closeStartedSlots(&days[0], now)
	return days, nil
}

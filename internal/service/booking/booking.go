package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/scheduling"
	"github.com/Alijeyrad/teleclinic_backend/pkg/crypto"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/observability"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
	"github.com/Alijeyrad/teleclinic_backend/pkg/timeofday"
	"github.com/Alijeyrad/teleclinic_backend/pkg/util/codes"
)

// encryptedPrefix marks case descriptions stored as AES-GCM ciphertext.
const encryptedPrefix = "enc:v1:"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientName     string    `json:"patient_name"`
	PatientMobile   string    `json:"patient_mobile"`
	PatientEmail    string    `json:"patient_email"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	CaseDescription string    `json:"case_description"`
	Locale          string    `json:"locale"`
}

// Event is the payload published on booking subjects.
type Event struct {
	BookingID uuid.UUID          `json:"booking_id"`
	DoctorID  uuid.UUID          `json:"doctor_id"`
	Status    repo.BookingStatus `json:"status"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Create books a slot. sess is nil for guests.
	Create(ctx context.Context, sess *reqctx.Session, req CreateRequest) (*repo.Booking, error)
	Get(ctx context.Context, sess reqctx.Session, id uuid.UUID) (*repo.Booking, error)
	ListForDoctor(ctx context.Context, sess reqctx.Session, doctorID uuid.UUID, date string) ([]*repo.Booking, error)
	ListMine(ctx context.Context, sess reqctx.Session) ([]*repo.Booking, error)
	UpdateStatus(ctx context.Context, sess reqctx.Session, id uuid.UUID, status repo.BookingStatus) (*repo.Booking, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)

	// Load returns a booking without access checks, for background workers.
	Load(ctx context.Context, id uuid.UUID) (*repo.Booking, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

var statuses = []repo.BookingStatus{
	repo.BookingPending, repo.BookingConfirmed, repo.BookingCompleted, repo.BookingCancelled,
}

// transitions lists the statuses reachable from each non-terminal status.
var transitions = map[repo.BookingStatus][]repo.BookingStatus{
	repo.BookingPending:   {repo.BookingConfirmed, repo.BookingCancelled},
	repo.BookingConfirmed: {repo.BookingCompleted, repo.BookingCancelled},
}

type bookingService struct {
	db      *repo.Client
	bus     eventbus.Bus
	cfg     Config
	metrics *observability.DomainMetrics
}

func New(db *repo.Client, bus eventbus.Bus, metrics *observability.DomainMetrics, cfg Config) Service {
	def := DefaultConfig()
	cfg.Location = lo.CoalesceOrEmpty(cfg.Location, def.Location)
	cfg.DefaultRegion = lo.CoalesceOrEmpty(cfg.DefaultRegion, def.DefaultRegion)
	cfg.DefaultDuration = lo.CoalesceOrEmpty(cfg.DefaultDuration, def.DefaultDuration)
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &bookingService{db: db, bus: bus, cfg: cfg, metrics: metrics}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// normalizeMobile parses a mobile number and formats it as E.164.
func normalizeMobile(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("patient mobile is required")
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", invalid("patient mobile %q is not a valid phone number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", invalid("patient email %q is not valid", raw)
	}
	return strings.ToLower(addr.Address), nil
}

func (s *bookingService) validate(req *CreateRequest) error {
	if req.DoctorID == uuid.Nil {
		return invalid("doctor id is required")
	}
	req.PatientName = strings.TrimSpace(req.PatientName)
	if req.PatientName == "" {
		return invalid("patient name is required")
	}

	var err error
	if req.PatientMobile, err = normalizeMobile(req.PatientMobile, s.cfg.DefaultRegion); err != nil {
		return err
	}
	if req.PatientEmail, err = normalizeEmail(req.PatientEmail); err != nil {
		return err
	}

	if _, err := timeofday.ParseDate(req.Date, s.cfg.Location); err != nil {
		return invalid("date must be YYYY-MM-DD")
	}
	clock, err := timeofday.Parse(req.Time)
	if err != nil {
		return invalid("time must be HH:MM")
	}
	req.Time = clock.String()
	req.CaseDescription = strings.TrimSpace(req.CaseDescription)
	return nil
}

// checkSlot verifies the time is one of the doctor's generated slots and has
// not started yet.
func (s *bookingService) checkSlot(ctx context.Context, req CreateRequest) error {
	d, err := s.db.Doctor.Get(ctx, req.DoctorID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("get doctor: %w", err)
	}

	now := s.cfg.Now().In(s.cfg.Location)
	today := timeofday.FormatDate(now)
	if req.Date < today {
		return fmt.Errorf("%w: date is in the past", ErrSlotUnavailable)
	}
	if req.Date == today && timeofday.MustParse(req.Time) <= timeofday.Of(now) {
		return fmt.Errorf("%w: slot has already started", ErrSlotUnavailable)
	}

	day, _ := timeofday.ParseDate(req.Date, s.cfg.Location)
	duration := lo.CoalesceOrEmpty(d.AppointmentDuration, s.cfg.DefaultDuration)
	if !lo.Contains(scheduling.GenerateSlotsForDate(d.Hours(), day, duration), req.Time) {
		return ErrSlotUnavailable
	}
	return nil
}

func (s *bookingService) Create(ctx context.Context, sess *reqctx.Session, req CreateRequest) (*repo.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "booking.Create",
		attribute.String("doctor_id", req.DoctorID.String()))
	defer span.End()

	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, req); err != nil {
		return nil, err
	}

	number, err := codes.GenerateBookingNumber(s.cfg.Codes)
	if err != nil {
		return nil, fmt.Errorf("generate booking number: %w", err)
	}
	description, err := s.seal(req.CaseDescription)
	if err != nil {
		return nil, err
	}

	b := &repo.Booking{
		ID:              uuid.New(),
		DoctorID:        req.DoctorID,
		PatientName:     req.PatientName,
		PatientMobile:   req.PatientMobile,
		PatientEmail:    req.PatientEmail,
		Date:            req.Date,
		Time:            req.Time,
		CaseDescription: description,
		BookingNumber:   number,
		Status:          repo.BookingPending,
		Locale:          req.Locale,
	}
	if sess != nil {
		b.PatientID = lo.ToPtr(sess.UserID)
		b.Locale = lo.CoalesceOrEmpty(b.Locale, sess.Locale)
	}

	created, err := s.db.Booking.CreateIfAbsent(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if !created {
		s.metrics.SlotConflict(ctx)
		return nil, ErrSlotTaken
	}
	s.metrics.BookingCreated(ctx, sess == nil)

	slog.Info("booking created",
		"booking_id", b.ID,
		"booking_number", b.BookingNumber,
		"doctor_id", b.DoctorID,
		"date", b.Date,
		"time", b.Time,
		"request_id", reqctx.RequestIDFromContext(ctx),
	)
	s.publish(eventbus.BookingCreatedSubject(b.ID), b)

	b.CaseDescription = req.CaseDescription
	return b, nil
}

func (s *bookingService) Load(ctx context.Context, id uuid.UUID) (*repo.Booking, error) {
	b, err := s.db.Booking.Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	s.open(b)
	return b, nil
}

func canView(sess reqctx.Session, b *repo.Booking) bool {
	if sess.IsAdmin() || (sess.IsDoctor() && sess.UserID == b.DoctorID) {
		return true
	}
	return b.PatientID != nil && *b.PatientID == sess.UserID
}

func (s *bookingService) Get(ctx context.Context, sess reqctx.Session, id uuid.UUID) (*repo.Booking, error) {
	b, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(sess, b) {
		// existence is not disclosed to other users
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *bookingService) ListForDoctor(ctx context.Context, sess reqctx.Session, doctorID uuid.UUID, date string) ([]*repo.Booking, error) {
	if !sess.IsAdmin() && !(sess.IsDoctor() && sess.UserID == doctorID) {
		return nil, ErrForbidden
	}
	if date != "" {
		if _, err := timeofday.ParseDate(date, s.cfg.Location); err != nil {
			return nil, invalid("date must be YYYY-MM-DD")
		}
	}
	list, err := s.db.Booking.ListByDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list doctor bookings: %w", err)
	}
	lo.ForEach(list, func(b *repo.Booking, _ int) { s.open(b) })
	return list, nil
}

func (s *bookingService) ListMine(ctx context.Context, sess reqctx.Session) ([]*repo.Booking, error) {
	if !sess.IsPatient() {
		return nil, ErrForbidden
	}
	list, err := s.db.Booking.ListByPatient(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list patient bookings: %w", err)
	}
	lo.ForEach(list, func(b *repo.Booking, _ int) { s.open(b) })
	return list, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, sess reqctx.Session, id uuid.UUID, status repo.BookingStatus) (*repo.Booking, error) {
	if !lo.Contains(statuses, status) {
		return nil, invalid("unknown status %q", status)
	}

	b, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin() && !(sess.IsDoctor() && sess.UserID == b.DoctorID) {
		return nil, ErrForbidden
	}
	if !lo.Contains(transitions[b.Status], status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, status)
	}

	ok, err := s.db.Booking.UpdateStatus(ctx, id, b.Status, status)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
	}

	slog.Info("booking status changed",
		"booking_id", b.ID,
		"from", b.Status,
		"to", status,
		"by", sess.UserID,
	)
	b.Status = status
	b.UpdatedAt = s.cfg.Now()
	s.publish(eventbus.BookingStatusSubject(b.ID), b)
	return b, nil
}

func (s *bookingService) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	times, err := s.db.Booking.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	return times, nil
}

// publish runs after the write has committed; failures are logged only.
func (s *bookingService) publish(subject string, b *repo.Booking) {
	if s.bus == nil {
		return
	}
	data, err := json.Marshal(Event{BookingID: b.ID, DoctorID: b.DoctorID, Status: b.Status})
	if err != nil {
		slog.Warn("encode booking event", "subject", subject, "error", err)
		return
	}
	if err := s.bus.Publish(subject, data); err != nil {
		slog.Warn("publish booking event", "subject", subject, "error", err)
	}
}

func (s *bookingService) seal(plain string) (string, error) {
	if plain == "" || len(s.cfg.EncryptionKey) == 0 {
		return plain, nil
	}
	enc, err := crypto.Encrypt(s.cfg.EncryptionKey, plain)
	if err != nil {
		return "", fmt.Errorf("encrypt case description: %w", err)
	}
	return encryptedPrefix + enc, nil
}

// open decrypts b.CaseDescription in place. Values that cannot be decrypted
// are blanked.
func (s *bookingService) open(b *repo.Booking) {
	enc, ok := strings.CutPrefix(b.CaseDescription, encryptedPrefix)
	if !ok {
		return
	}
	if len(s.cfg.EncryptionKey) == 0 {
		b.CaseDescription = ""
		return
	}
	plain, err := crypto.Decrypt(s.cfg.EncryptionKey, enc)
	if err != nil {
		slog.Warn("decrypt case description", "booking_id", b.ID, "error", err)
		b.CaseDescription = ""
		return
	}
	b.CaseDescription = plain
}

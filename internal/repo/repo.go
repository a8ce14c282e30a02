// Package repo defines the persisted records and the storage contracts the
// services depend on. Implementations live in the postgres and memory
// subpackages.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ----- Doctors -----

// DayHours is one weekday entry of a weekly availability template.
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// WorkingHours maps lower-case weekday names to their hours.
type WorkingHours map[string]DayHours

func (w WorkingHours) Clone() WorkingHours {
	if w == nil {
		return nil
	}
	out := make(WorkingHours, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

type Doctor struct {
	ID                  uuid.UUID    `json:"id"`
	Name                string       `json:"name"`
	Specialty           string       `json:"specialty"`
	WorkingHours        WorkingHours `json:"working_hours,omitempty"`
	LegacySchedule      WorkingHours `json:"-"`
	AppointmentDuration int          `json:"appointment_duration"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Hours returns the doctor's working hours, falling back to the legacy
// schedule column for records that predate working_hours.
func (d *Doctor) Hours() WorkingHours {
	if len(d.WorkingHours) > 0 {
		return d.WorkingHours
	}
	return d.LegacySchedule
}

type DoctorFilter struct {
	Specialty string
	Limit     int
	Offset    int
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	Get(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
	// UpdateSchedule overwrites the whole template.
	UpdateSchedule(ctx context.Context, id uuid.UUID, hours WorkingHours, durationMinutes int) error
}

// ----- Bookings -----

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID              uuid.UUID     `json:"id"`
	DoctorID        uuid.UUID     `json:"doctor_id"`
	PatientID       *uuid.UUID    `json:"patient_id,omitempty"`
	PatientName     string        `json:"patient_name"`
	PatientMobile   string        `json:"patient_mobile"`
	PatientEmail    string        `json:"patient_email,omitempty"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	CaseDescription string        `json:"case_description,omitempty"`
	BookingNumber   string        `json:"booking_number"`
	Status          BookingStatus `json:"status"`
	Locale          string        `json:"locale,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type BookingRepository interface {
	// CreateIfAbsent inserts b unless an active booking already holds
	// (doctor_id, date, time). It reports whether the row was written.
	CreateIfAbsent(ctx context.Context, b *Booking) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	// ListByDoctor returns bookings ordered by date and time. An empty date
	// lists every date.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]*Booking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Booking, error)
	// BookedTimes returns the "HH:MM" times held by non-cancelled bookings.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
	// UpdateStatus moves a booking from one status to another. It reports
	// false when the booking is no longer in the from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (bool, error)
}

// ----- Chats -----

// Party is a chat participant slot. Unread counters and hide flags are kept
// per party.
type Party string

const (
	PartyDoctor  Party = "doctor"
	PartyPatient Party = "patient"
)

// Other returns the opposite participant.
func (p Party) Other() Party {
	if p == PartyDoctor {
		return PartyPatient
	}
	return PartyDoctor
}

type ChatStatus string

const (
	ChatPending  ChatStatus = "pending"
	ChatAccepted ChatStatus = "accepted"
	ChatRejected ChatStatus = "rejected"
)

type UnreadCount struct {
	Doctor  int `json:"doctor"`
	Patient int `json:"patient"`
}

func (u UnreadCount) For(p Party) int {
	if p == PartyDoctor {
		return u.Doctor
	}
	return u.Patient
}

type ChatThread struct {
	ID               uuid.UUID   `json:"id"`
	DoctorID         uuid.UUID   `json:"doctor_id"`
	PatientID        uuid.UUID   `json:"patient_id"`
	DoctorName       string      `json:"doctor_name"`
	PatientName      string      `json:"patient_name"`
	Status           ChatStatus  `json:"status"`
	LastMessage      string      `json:"last_message"`
	LastMessageTime  time.Time   `json:"last_message_time"`
	Unread           UnreadCount `json:"unread_count"`
	HiddenForDoctor  bool        `json:"-"`
	HiddenForPatient bool        `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
}

// PartyOf returns the participant slot userID occupies in the thread.
func (t *ChatThread) PartyOf(userID uuid.UUID) (Party, bool) {
	switch userID {
	case t.DoctorID:
		return PartyDoctor, true
	case t.PatientID:
		return PartyPatient, true
	}
	return "", false
}

func (t *ChatThread) HiddenFor(p Party) bool {
	if p == PartyDoctor {
		return t.HiddenForDoctor
	}
	return t.HiddenForPatient
}

type ChatMessage struct {
	ID         uuid.UUID `json:"id"`
	ChatID     uuid.UUID `json:"chat_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole Party     `json:"sender_role"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

type ChatRepository interface {
	// CreateThread writes the thread and its first message together. A thread
	// for the same (doctor, patient) pair yields ErrConflict.
	CreateThread(ctx context.Context, t *ChatThread, first *ChatMessage) error
	GetThread(ctx context.Context, id uuid.UUID) (*ChatThread, error)
	FindThread(ctx context.Context, doctorID, patientID uuid.UUID) (*ChatThread, error)
	// ListThreads returns the threads visible to userID in the given party
	// slot, most recent activity first.
	ListThreads(ctx context.Context, userID uuid.UUID, party Party) ([]*ChatThread, error)
	// TransitionStatus reports false when the thread is no longer in from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to ChatStatus) (bool, error)
	// AppendMessage stores m, updates the thread summary, increments the
	// recipient's unread counter and clears both hide flags. It reports false
	// without writing when the thread is not accepted.
	AppendMessage(ctx context.Context, m *ChatMessage, recipient Party) (bool, error)
	// MarkRead zeroes reader's unread counter and flags messages not sent by
	// readerID as read.
	MarkRead(ctx context.Context, chatID uuid.UUID, reader Party, readerID uuid.UUID) error
	// Hide hides the thread for one party. When both parties have hidden it,
	// the thread and its messages are removed and purged is true.
	Hide(ctx context.Context, chatID uuid.UUID, party Party) (purged bool, err error)
	// Unhide clears party's hide flag.
	Unhide(ctx context.Context, chatID uuid.UUID, party Party) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]*ChatMessage, error)
}

// Client bundles the repositories backed by one store.
type Client struct {
	Doctor  DoctorRepository
	Booking BookingRepository
	Chat    ChatRepository

	closer func() error
}

func NewClient(d DoctorRepository, b BookingRepository, c ChatRepository, closer func() error) *Client {
	return &Client{Doctor: d, Booking: b, Chat: c, closer: closer}
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

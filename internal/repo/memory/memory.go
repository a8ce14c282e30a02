// Package memory is an in-process implementation of the repo contracts. It
// backs the service tests and single-node development runs.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

// Store holds all records behind a single mutex so multi-record writes are
// atomic with respect to each other.
type Store struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]*repo.Doctor
	bookings map[uuid.UUID]*repo.Booking
	chats    map[uuid.UUID]*repo.ChatThread
	messages map[uuid.UUID][]*repo.ChatMessage
	now      func() time.Time
}

func New() *Store {
	return &Store{
		doctors:  make(map[uuid.UUID]*repo.Doctor),
		bookings: make(map[uuid.UUID]*repo.Booking),
		chats:    make(map[uuid.UUID]*repo.ChatThread),
		messages: make(map[uuid.UUID][]*repo.ChatMessage),
		now:      time.Now,
	}
}

// NewClient returns a repo.Client backed by a fresh Store.
func NewClient() *repo.Client {
	s := New()
	return repo.NewClient(doctors{s}, bookings{s}, chats{s}, nil)
}

// ----- Doctors -----

type doctors struct{ s *Store }

func copyDoctor(d *repo.Doctor) *repo.Doctor {
	c := *d
	c.WorkingHours = d.WorkingHours.Clone()
	c.LegacySchedule = d.LegacySchedule.Clone()
	return &c
}

func (r doctors) Create(_ context.Context, d *repo.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[d.ID]; ok {
		return repo.ErrConflict
	}
	now := r.s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	r.s.doctors[d.ID] = copyDoctor(d)
	return nil
}

func (r doctors) Get(_ context.Context, id uuid.UUID) (*repo.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyDoctor(d), nil
}

func (r doctors) List(_ context.Context, f repo.DoctorFilter) ([]*repo.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := lo.Filter(lo.Values(r.s.doctors), func(d *repo.Doctor, _ int) bool {
		return f.Specialty == "" || d.Specialty == f.Specialty
	})
	slices.SortFunc(all, func(a, b *repo.Doctor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	if f.Offset > 0 {
		all = all[min(f.Offset, len(all)):]
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return lo.Map(all, func(d *repo.Doctor, _ int) *repo.Doctor { return copyDoctor(d) }), nil
}

func (r doctors) UpdateSchedule(_ context.Context, id uuid.UUID, hours repo.WorkingHours, durationMinutes int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return repo.ErrNotFound
	}
	d.WorkingHours = hours.Clone()
	d.AppointmentDuration = durationMinutes
	d.UpdatedAt = r.s.now()
	return nil
}

// ----- Bookings -----

type bookings struct{ s *Store }

func copyBooking(b *repo.Booking) *repo.Booking {
	c := *b
	if b.PatientID != nil {
		id := *b.PatientID
		c.PatientID = &id
	}
	return &c
}

func byDateTime(a, b *repo.Booking) int {
	return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Time, b.Time), a.CreatedAt.Compare(b.CreatedAt))
}

func (r bookings) CreateIfAbsent(_ context.Context, b *repo.Booking) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bookings {
		if existing.DoctorID == b.DoctorID && existing.Date == b.Date && existing.Time == b.Time &&
			existing.Status != repo.BookingCancelled {
			return false, nil
		}
	}
	if _, ok := r.s.bookings[b.ID]; ok {
		return false, repo.ErrConflict
	}

	now := r.s.now()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.s.bookings[b.ID] = copyBooking(b)
	return true, nil
}

func (r bookings) Get(_ context.Context, id uuid.UUID) (*repo.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyBooking(b), nil
}

func (r bookings) list(keep func(*repo.Booking) bool) []*repo.Booking {
	out := make([]*repo.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	slices.SortFunc(out, byDateTime)
	return out
}

func (r bookings) ListByDoctor(_ context.Context, doctorID uuid.UUID, date string) ([]*repo.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.list(func(b *repo.Booking) bool {
		return b.DoctorID == doctorID && (date == "" || b.Date == date)
	}), nil
}

func (r bookings) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*repo.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.list(func(b *repo.Booking) bool {
		return b.PatientID != nil && *b.PatientID == patientID
	}), nil
}

func (r bookings) BookedTimes(_ context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	active := r.list(func(b *repo.Booking) bool {
		return b.DoctorID == doctorID && b.Date == date && b.Status != repo.BookingCancelled
	})
	return lo.Map(active, func(b *repo.Booking, _ int) string { return b.Time }), nil
}

func (r bookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to repo.BookingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return false, repo.ErrNotFound
	}
	if b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = r.s.now()
	return true, nil
}

// ----- Chats -----

type chats struct{ s *Store }

func copyThread(t *repo.ChatThread) *repo.ChatThread {
	c := *t
	return &c
}

func copyMessage(m *repo.ChatMessage) *repo.ChatMessage {
	c := *m
	return &c
}

func (r chats) CreateThread(_ context.Context, t *repo.ChatThread, first *repo.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.chats {
		if existing.DoctorID == t.DoctorID && existing.PatientID == t.PatientID {
			return repo.ErrConflict
		}
	}
	r.s.chats[t.ID] = copyThread(t)
	r.s.messages[t.ID] = []*repo.ChatMessage{copyMessage(first)}
	return nil
}

func (r chats) GetThread(_ context.Context, id uuid.UUID) (*repo.ChatThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyThread(t), nil
}

func (r chats) FindThread(_ context.Context, doctorID, patientID uuid.UUID) (*repo.ChatThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := lo.Find(lo.Values(r.s.chats), func(t *repo.ChatThread) bool {
		return t.DoctorID == doctorID && t.PatientID == patientID
	})
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyThread(t), nil
}

func (r chats) ListThreads(_ context.Context, userID uuid.UUID, party repo.Party) ([]*repo.ChatThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repo.ChatThread, 0)
	for _, t := range r.s.chats {
		if p, ok := t.PartyOf(userID); ok && p == party && !t.HiddenFor(party) {
			out = append(out, copyThread(t))
		}
	}
	slices.SortFunc(out, func(a, b *repo.ChatThread) int {
		return b.LastMessageTime.Compare(a.LastMessageTime)
	})
	return out, nil
}

func (r chats) TransitionStatus(_ context.Context, id uuid.UUID, from, to repo.ChatStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[id]
	if !ok {
		return false, repo.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (r chats) AppendMessage(_ context.Context, m *repo.ChatMessage, recipient repo.Party) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[m.ChatID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if t.Status != repo.ChatAccepted {
		return false, nil
	}

	r.s.messages[m.ChatID] = append(r.s.messages[m.ChatID], copyMessage(m))
	t.LastMessage = m.Text
	t.LastMessageTime = m.CreatedAt
	if recipient == repo.PartyDoctor {
		t.Unread.Doctor++
	} else {
		t.Unread.Patient++
	}
	t.HiddenForDoctor = false
	t.HiddenForPatient = false
	return true, nil
}

func (r chats) MarkRead(_ context.Context, chatID uuid.UUID, reader repo.Party, readerID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[chatID]
	if !ok {
		return repo.ErrNotFound
	}
	if reader == repo.PartyDoctor {
		t.Unread.Doctor = 0
	} else {
		t.Unread.Patient = 0
	}
	for _, m := range r.s.messages[chatID] {
		if m.SenderID != readerID {
			m.Read = true
		}
	}
	return nil
}

func (r chats) Hide(_ context.Context, chatID uuid.UUID, party repo.Party) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[chatID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if party == repo.PartyDoctor {
		t.HiddenForDoctor = true
	} else {
		t.HiddenForPatient = true
	}
	if t.HiddenForDoctor && t.HiddenForPatient {
		delete(r.s.chats, chatID)
		delete(r.s.messages, chatID)
		return true, nil
	}
	return false, nil
}

func (r chats) Unhide(_ context.Context, chatID uuid.UUID, party repo.Party) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.chats[chatID]
	if !ok {
		return repo.ErrNotFound
	}
	if party == repo.PartyDoctor {
		t.HiddenForDoctor = false
	} else {
		t.HiddenForPatient = false
	}
	return nil
}

func (r chats) ListMessages(_ context.Context, chatID uuid.UUID) ([]*repo.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chats[chatID]; !ok {
		return nil, repo.ErrNotFound
	}
	return lo.Map(r.s.messages[chatID], func(m *repo.ChatMessage, _ int) *repo.ChatMessage {
		return copyMessage(m)
	}), nil
}

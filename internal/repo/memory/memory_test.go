package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

func TestCreateIfAbsentSingleWinner(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	doctorID := uuid.New()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.Booking.CreateIfAbsent(ctx, &repo.Booking{
				ID: uuid.New(), DoctorID: doctorID, Date: "2030-01-01", Time: "09:00", Status: repo.BookingPending,
			})
			if err != nil {
				t.Errorf("CreateIfAbsent: %v", err)
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one booking to win, got %d", got)
	}
}

func TestCancelledBookingFreesSlot(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	doctorID := uuid.New()

	first := &repo.Booking{ID: uuid.New(), DoctorID: doctorID, Date: "2030-01-01", Time: "09:00", Status: repo.BookingPending}
	if ok, _ := c.Booking.CreateIfAbsent(ctx, first); !ok {
		t.Fatal("first booking not created")
	}
	if ok, err := c.Booking.UpdateStatus(ctx, first.ID, repo.BookingPending, repo.BookingCancelled); !ok || err != nil {
		t.Fatalf("UpdateStatus = %v, %v", ok, err)
	}

	times, _ := c.Booking.BookedTimes(ctx, doctorID, "2030-01-01")
	if len(times) != 0 {
		t.Errorf("cancelled booking still listed as booked: %v", times)
	}

	second := &repo.Booking{ID: uuid.New(), DoctorID: doctorID, Date: "2030-01-01", Time: "09:00", Status: repo.BookingPending}
	if ok, _ := c.Booking.CreateIfAbsent(ctx, second); !ok {
		t.Error("slot was not freed by cancellation")
	}
}

func TestUpdateStatusStaleFrom(t *testing.T) {
	c := NewClient()
	ctx := context.Background()

	b := &repo.Booking{ID: uuid.New(), DoctorID: uuid.New(), Date: "2030-01-01", Time: "09:00", Status: repo.BookingConfirmed}
	c.Booking.CreateIfAbsent(ctx, b)

	ok, err := c.Booking.UpdateStatus(ctx, b.ID, repo.BookingPending, repo.BookingCancelled)
	if ok || err != nil {
		t.Errorf("UpdateStatus from stale status = %v, %v", ok, err)
	}
	if _, err := c.Booking.UpdateStatus(ctx, uuid.New(), repo.BookingPending, repo.BookingCancelled); !repo.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func newThread(doctorID, patientID uuid.UUID) (*repo.ChatThread, *repo.ChatMessage) {
	now := time.Now()
	th := &repo.ChatThread{
		ID: uuid.New(), DoctorID: doctorID, PatientID: patientID,
		Status: repo.ChatPending, LastMessage: "hi", LastMessageTime: now,
		Unread: repo.UnreadCount{Doctor: 1},
	}
	msg := &repo.ChatMessage{ID: uuid.New(), ChatID: th.ID, SenderID: patientID, SenderRole: repo.PartyPatient, Text: "hi", CreatedAt: now}
	return th, msg
}

func TestCreateThreadDuplicatePair(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	d, p := uuid.New(), uuid.New()

	th, msg := newThread(d, p)
	if err := c.Chat.CreateThread(ctx, th, msg); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	th2, msg2 := newThread(d, p)
	if err := c.Chat.CreateThread(ctx, th2, msg2); err != repo.ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestAppendMessageRequiresAccepted(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	d, p := uuid.New(), uuid.New()
	th, first := newThread(d, p)
	c.Chat.CreateThread(ctx, th, first)

	m := &repo.ChatMessage{ID: uuid.New(), ChatID: th.ID, SenderID: p, SenderRole: repo.PartyPatient, Text: "again", CreatedAt: time.Now()}
	if ok, err := c.Chat.AppendMessage(ctx, m, repo.PartyDoctor); ok || err != nil {
		t.Fatalf("append on pending = %v, %v", ok, err)
	}

	c.Chat.TransitionStatus(ctx, th.ID, repo.ChatPending, repo.ChatAccepted)
	if ok, err := c.Chat.AppendMessage(ctx, m, repo.PartyDoctor); !ok || err != nil {
		t.Fatalf("append on accepted = %v, %v", ok, err)
	}

	got, _ := c.Chat.GetThread(ctx, th.ID)
	if got.Unread.Doctor != 2 || got.Unread.Patient != 0 || got.LastMessage != "again" {
		t.Errorf("unexpected thread after append: %+v", got)
	}
}

func TestHidePurgesWhenBothHidden(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	d, p := uuid.New(), uuid.New()
	th, first := newThread(d, p)
	c.Chat.CreateThread(ctx, th, first)

	purged, err := c.Chat.Hide(ctx, th.ID, repo.PartyPatient)
	if err != nil || purged {
		t.Fatalf("first hide = %v, %v", purged, err)
	}
	if list, _ := c.Chat.ListThreads(ctx, p, repo.PartyPatient); len(list) != 0 {
		t.Errorf("hidden thread still listed for patient")
	}
	if list, _ := c.Chat.ListThreads(ctx, d, repo.PartyDoctor); len(list) != 1 {
		t.Errorf("thread should stay visible for doctor")
	}

	purged, err = c.Chat.Hide(ctx, th.ID, repo.PartyDoctor)
	if err != nil || !purged {
		t.Fatalf("second hide = %v, %v", purged, err)
	}
	if _, err := c.Chat.GetThread(ctx, th.ID); !repo.IsNotFound(err) {
		t.Errorf("expected purged thread to be gone, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	c := NewClient()
	ctx := context.Background()
	doc := &repo.Doctor{ID: uuid.New(), Name: "A", WorkingHours: repo.WorkingHours{"monday": {Enabled: true, Start: "09:00", End: "10:00"}}}
	c.Doctor.Create(ctx, doc)

	got, _ := c.Doctor.Get(ctx, doc.ID)
	got.WorkingHours["monday"] = repo.DayHours{}

	again, _ := c.Doctor.Get(ctx, doc.ID)
	if !again.WorkingHours["monday"].Enabled {
		t.Error("mutating a returned doctor changed the store")
	}
}

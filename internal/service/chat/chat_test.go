package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/memory"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

type fixture struct {
	svc     Service
	db      *repo.Client
	doctor  reqctx.Session
	patient reqctx.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.NewClient()
	d := &repo.Doctor{ID: uuid.New(), Name: "Dr. Example"}
	require.NoError(t, db.Doctor.Create(context.Background(), d))

	bus := eventbus.NewLocal()
	t.Cleanup(func() { bus.Close() })

	return &fixture{
		svc:     New(db, bus, nil),
		db:      db,
		doctor:  reqctx.Session{UserID: d.ID, Role: reqctx.RoleDoctor, Name: d.Name},
		patient: reqctx.Session{UserID: uuid.New(), Role: reqctx.RolePatient, Name: "Sara"},
	}
}

func (f *fixture) request(t *testing.T) *repo.ChatThread {
	t.Helper()
	th, err := f.svc.CreateRequest(context.Background(), f.patient, CreateRequest{
		DoctorID: f.doctor.UserID,
		Text:     "Hello doctor",
	})
	require.NoError(t, err)
	return th
}

func (f *fixture) accepted(t *testing.T) *repo.ChatThread {
	t.Helper()
	th := f.request(t)
	_, err := f.svc.Accept(context.Background(), f.doctor, th.ID)
	require.NoError(t, err)
	return th
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	th := f.request(t)
	assert.Equal(t, repo.ChatPending, th.Status)
	assert.Equal(t, repo.UnreadCount{Doctor: 1, Patient: 0}, th.Unread)
	assert.Equal(t, "Hello doctor", th.LastMessage)
	assert.Equal(t, "Dr. Example", th.DoctorName)
	assert.Equal(t, "Sara", th.PatientName)

	msgs, err := f.svc.ListMessages(ctx, f.patient, th.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, repo.PartyPatient, msgs[0].SenderRole)

	doctorChats, err := f.svc.ListChats(ctx, f.doctor)
	require.NoError(t, err)
	require.Len(t, doctorChats, 1)
	assert.Equal(t, th.ID, doctorChats[0].ID)
}

func TestCreateRequestPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRequest(ctx, f.doctor, CreateRequest{DoctorID: f.doctor.UserID, Text: "hi"})
	assert.ErrorIs(t, err, ErrPatientOnly)

	anonymous := reqctx.Session{UserID: uuid.New(), Role: reqctx.RolePatient}
	_, err = f.svc.CreateRequest(ctx, anonymous, CreateRequest{DoctorID: f.doctor.UserID, Text: "hi"})
	assert.ErrorIs(t, err, ErrMissingDisplayName)

	_, err = f.svc.CreateRequest(ctx, anonymous, CreateRequest{DoctorID: f.doctor.UserID, PatientName: "Ali", Text: "hi"})
	assert.NoError(t, err, "display name may come from the request")

	_, err = f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: uuid.New(), Text: "hi"})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestDuplicateRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t)

	_, err := f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "again"})
	assert.ErrorIs(t, err, ErrDuplicateThread)

	chats, err := f.svc.ListChats(ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestConcurrentRequestsCreateOneThread(t *testing.T) {
	f := newFixture(t)

	var created atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateRequest(context.Background(), f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "hi"})
			if err == nil {
				created.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrDuplicateThread)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
}

func TestSendMessageRequiresAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.request(t)

	_, err := f.svc.SendMessage(ctx, f.patient, th.ID, "are you there?")
	assert.ErrorIs(t, err, ErrNotAccepted)

	got, err := f.svc.Get(ctx, f.patient, th.ID)
	require.NoError(t, err)
	assert.Equal(t, th.Unread, got.Unread)
	assert.Equal(t, "Hello doctor", got.LastMessage)
	msgs, _ := f.svc.ListMessages(ctx, f.patient, th.ID)
	assert.Len(t, msgs, 1)
}

func TestSendMessageUpdatesRecipientUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.accepted(t)

	m, err := f.svc.SendMessage(ctx, f.doctor, th.ID, "How can I help?")
	require.NoError(t, err)
	assert.Equal(t, repo.PartyDoctor, m.SenderRole)
	assert.Equal(t, "Dr. Example", m.SenderName)

	got, err := f.svc.Get(ctx, f.doctor, th.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.UnreadCount{Doctor: 1, Patient: 1}, got.Unread)
	assert.Equal(t, "How can I help?", got.LastMessage)

	stranger := reqctx.Session{UserID: uuid.New(), Role: reqctx.RolePatient, Name: "X"}
	_, err = f.svc.SendMessage(ctx, stranger, th.ID, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.accepted(t)
	_, err := f.svc.SendMessage(ctx, f.patient, th.ID, "second")
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, f.doctor, th.ID))
	once, _ := f.svc.Get(ctx, f.doctor, th.ID)
	onceMsgs, _ := f.svc.ListMessages(ctx, f.doctor, th.ID)

	require.NoError(t, f.svc.MarkRead(ctx, f.doctor, th.ID))
	twice, _ := f.svc.Get(ctx, f.doctor, th.ID)
	twiceMsgs, _ := f.svc.ListMessages(ctx, f.doctor, th.ID)

	assert.Equal(t, 0, once.Unread.Doctor)
	assert.Equal(t, once, twice)
	assert.Equal(t, onceMsgs, twiceMsgs)
	for _, m := range twiceMsgs {
		assert.True(t, m.Read)
	}
}

func TestRejectedChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.request(t)

	_, err := f.svc.Reject(ctx, f.patient, th.ID)
	assert.ErrorIs(t, err, ErrNotThreadDoctor)

	rejected, err := f.svc.Reject(ctx, f.doctor, th.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.ChatRejected, rejected.Status)

	_, err = f.svc.SendMessage(ctx, f.patient, th.ID, "please")
	assert.ErrorIs(t, err, ErrNotAccepted)
	_, err = f.svc.Accept(ctx, f.doctor, th.ID)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "again"})
	assert.ErrorIs(t, err, ErrRequestRejected)
}

func TestDeleteHidesThenPurges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.accepted(t)

	require.NoError(t, f.svc.Delete(ctx, f.patient, th.ID))
	mine, _ := f.svc.ListChats(ctx, f.patient)
	assert.Empty(t, mine)
	_, err := f.svc.Get(ctx, f.patient, th.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	theirs, _ := f.svc.ListChats(ctx, f.doctor)
	assert.Len(t, theirs, 1, "hiding is per participant")

	// a new message brings the thread back for both
	_, err = f.svc.SendMessage(ctx, f.doctor, th.ID, "follow up")
	require.NoError(t, err)
	mine, _ = f.svc.ListChats(ctx, f.patient)
	assert.Len(t, mine, 1)

	require.NoError(t, f.svc.Delete(ctx, f.patient, th.ID))
	require.NoError(t, f.svc.Delete(ctx, f.doctor, th.ID))
	_, err = f.db.Chat.GetThread(ctx, th.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "new start"})
	assert.NoError(t, err)
}

func TestCreateRequestRestoresHiddenThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.accepted(t)

	require.NoError(t, f.svc.Delete(ctx, f.patient, th.ID))
	mine, err := f.svc.ListChats(ctx, f.patient)
	require.NoError(t, err)
	require.Empty(t, mine)

	_, err = f.svc.CreateRequest(ctx, f.patient, CreateRequest{DoctorID: f.doctor.UserID, Text: "are you there?"})
	require.ErrorIs(t, err, ErrDuplicateThread)
	var exists *ThreadExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, th.ID, exists.Thread.ID)
	assert.False(t, exists.Thread.HiddenForPatient)

	mine, err = f.svc.ListChats(ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, th.ID, mine[0].ID)

	got, err := f.svc.Get(ctx, f.patient, th.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.ChatAccepted, got.Status)
	msgs, err := f.svc.ListMessages(ctx, f.patient, th.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestPendingRequestStaysVisibleToDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.request(t)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.doctor, th.ID), ErrPendingRequest)
	theirs, err := f.svc.ListChats(ctx, f.doctor)
	require.NoError(t, err)
	require.Len(t, theirs, 1)

	// the patient may still withdraw it from their own list
	require.NoError(t, f.svc.Delete(ctx, f.patient, th.ID))

	_, err = f.svc.Accept(ctx, f.doctor, th.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.doctor, th.ID), "answered requests can be hidden")
}

func TestWatchChats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updates := make(chan []*repo.ChatThread, 16)
	sub, err := f.svc.WatchChats(ctx, f.doctor, func(list []*repo.ChatThread, err error) {
		assert.NoError(t, err)
		updates <- list
	})
	require.NoError(t, err)
	defer sub.Cancel()

	next := func() []*repo.ChatThread {
		select {
		case l := <-updates:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("no chat list update")
			return nil
		}
	}

	assert.Empty(t, next())
	th := f.request(t)

	var list []*repo.ChatThread
	require.Eventually(t, func() bool {
		select {
		case list = <-updates:
		default:
		}
		return len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, th.ID, list[0].ID)
}

func TestWatchMessagesCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.accepted(t)

	var calls atomic.Int32
	sub, err := f.svc.WatchMessages(ctx, f.patient, th.ID, func([]*repo.ChatMessage, error) {
		calls.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sub.Cancel())
	require.NoError(t, sub.Cancel())

	after := calls.Load()
	for i := range 5 {
		_, err := f.svc.SendMessage(ctx, f.doctor, th.ID, "ping "+string(rune('a'+i)))
		require.NoError(t, err)
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "callback ran after Cancel returned")

	stranger := reqctx.Session{UserID: uuid.New(), Role: reqctx.RolePatient}
	_, err = f.svc.WatchMessages(ctx, stranger, th.ID, func([]*repo.ChatMessage, error) {})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

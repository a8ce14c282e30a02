package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/observability"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
	"github.com/Alijeyrad/teleclinic_backend/pkg/watch"
)

// MaxMessageLength is the longest message text accepted, in characters.
const MaxMessageLength = 4000

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	PatientName string    `json:"patient_name"`
	Text        string    `json:"text"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateRequest(ctx context.Context, sess reqctx.Session, req CreateRequest) (*repo.ChatThread, error)
	Accept(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error)
	Reject(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error)
	SendMessage(ctx context.Context, sess reqctx.Session, chatID uuid.UUID, text string) (*repo.ChatMessage, error)
	MarkRead(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) error
	// Delete hides the chat for the caller only.
	Delete(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) error

	Get(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error)
	ListChats(ctx context.Context, sess reqctx.Session) ([]*repo.ChatThread, error)
	ListMessages(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) ([]*repo.ChatMessage, error)

	// WatchChats calls fn with the caller's chat list now and after every
	// change to it, until the subscription is cancelled or ctx ends.
	WatchChats(ctx context.Context, sess reqctx.Session, fn func([]*repo.ChatThread, error)) (*watch.Subscription, error)
	// WatchMessages does the same for one chat's messages.
	WatchMessages(ctx context.Context, sess reqctx.Session, chatID uuid.UUID, fn func([]*repo.ChatMessage, error)) (*watch.Subscription, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type chatService struct {
	db      *repo.Client
	bus     eventbus.Bus
	metrics *observability.DomainMetrics
	now     func() time.Time
}

// New builds the chat service. A nil bus falls back to an in-process bus,
// which only reaches watchers in this process.
func New(db *repo.Client, bus eventbus.Bus, metrics *observability.DomainMetrics) Service {
	if bus == nil {
		bus = eventbus.NewLocal()
	}
	return &chatService{db: db, bus: bus, metrics: metrics, now: time.Now}
}

// sessionParty is the slot the caller's own threads are listed under.
func sessionParty(sess reqctx.Session) repo.Party {
	if sess.IsDoctor() {
		return repo.PartyDoctor
	}
	return repo.PartyPatient
}

func (s *chatService) thread(ctx context.Context, chatID uuid.UUID) (*repo.ChatThread, error) {
	t, err := s.db.Chat.GetThread(ctx, chatID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return t, nil
}

// participant loads a thread and resolves the caller's party in it.
func (s *chatService) participant(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, repo.Party, error) {
	t, err := s.thread(ctx, chatID)
	if err != nil {
		return nil, "", err
	}
	p, ok := t.PartyOf(sess.UserID)
	if !ok {
		return nil, "", ErrNotParticipant
	}
	return t, p, nil
}

func messageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: message text is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", fmt.Errorf("%w: message is longer than %d characters", ErrValidation, MaxMessageLength)
	}
	return text, nil
}

func (s *chatService) CreateRequest(ctx context.Context, sess reqctx.Session, req CreateRequest) (*repo.ChatThread, error) {
	if !sess.IsPatient() {
		return nil, ErrPatientOnly
	}
	patientName := lo.CoalesceOrEmpty(strings.TrimSpace(req.PatientName), strings.TrimSpace(sess.Name))
	if patientName == "" {
		return nil, ErrMissingDisplayName
	}
	text, err := messageText(req.Text)
	if err != nil {
		return nil, err
	}

	doctor, err := s.db.Doctor.Get(ctx, req.DoctorID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	existing, err := s.db.Chat.FindThread(ctx, doctor.ID, sess.UserID)
	switch {
	case err == nil && existing.Status == repo.ChatRejected:
		return nil, ErrRequestRejected
	case err == nil:
		return nil, s.reopen(ctx, existing)
	case !repo.IsNotFound(err):
		return nil, fmt.Errorf("find chat: %w", err)
	}

	now := s.now()
	t := &repo.ChatThread{
		ID:              uuid.New(),
		DoctorID:        doctor.ID,
		PatientID:       sess.UserID,
		DoctorName:      lo.CoalesceOrEmpty(strings.TrimSpace(req.DoctorName), doctor.Name),
		PatientName:     patientName,
		Status:          repo.ChatPending,
		LastMessage:     text,
		LastMessageTime: now,
		Unread:          repo.UnreadCount{Doctor: 1},
		CreatedAt:       now,
	}
	first := &repo.ChatMessage{
		ID:         uuid.New(),
		ChatID:     t.ID,
		SenderID:   sess.UserID,
		SenderRole: repo.PartyPatient,
		SenderName: patientName,
		Text:       text,
		CreatedAt:  now,
	}

	if err := s.db.Chat.CreateThread(ctx, t, first); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrDuplicateThread
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}

	slog.Info("chat requested", "chat_id", t.ID, "doctor_id", t.DoctorID, "patient_id", t.PatientID)
	s.metrics.ChatTransition(ctx, string(repo.ChatPending))
	s.notify(t)
	return t, nil
}

// reopen restores a live thread the patient had hidden and reports it as
// the existing conversation.
func (s *chatService) reopen(ctx context.Context, t *repo.ChatThread) error {
	if t.HiddenFor(repo.PartyPatient) {
		if err := s.db.Chat.Unhide(ctx, t.ID, repo.PartyPatient); err != nil {
			return fmt.Errorf("unhide chat: %w", err)
		}
		t.HiddenForPatient = false
		slog.Info("chat restored", "chat_id", t.ID, "patient_id", t.PatientID)
		s.notify(t)
	}
	return &ThreadExistsError{Thread: t}
}

func (s *chatService) Accept(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error) {
	return s.answer(ctx, sess, chatID, repo.ChatAccepted)
}

func (s *chatService) Reject(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error) {
	return s.answer(ctx, sess, chatID, repo.ChatRejected)
}

func (s *chatService) answer(ctx context.Context, sess reqctx.Session, chatID uuid.UUID, to repo.ChatStatus) (*repo.ChatThread, error) {
	t, err := s.thread(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if p, ok := t.PartyOf(sess.UserID); !ok || p != repo.PartyDoctor {
		return nil, ErrNotThreadDoctor
	}
	if t.Status != repo.ChatPending {
		return nil, ErrNotPending
	}

	ok, err := s.db.Chat.TransitionStatus(ctx, chatID, repo.ChatPending, to)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update chat status: %w", err)
	}
	if !ok {
		return nil, ErrNotPending
	}

	slog.Info("chat request answered", "chat_id", chatID, "status", to, "doctor_id", sess.UserID)
	s.metrics.ChatTransition(ctx, string(to))
	t.Status = to
	s.notify(t)
	return t, nil
}

func (s *chatService) SendMessage(ctx context.Context, sess reqctx.Session, chatID uuid.UUID, text string) (*repo.ChatMessage, error) {
	t, party, err := s.participant(ctx, sess, chatID)
	if err != nil {
		return nil, err
	}
	if t.Status != repo.ChatAccepted {
		return nil, ErrNotAccepted
	}
	text, err = messageText(text)
	if err != nil {
		return nil, err
	}

	m := &repo.ChatMessage{
		ID:         uuid.New(),
		ChatID:     chatID,
		SenderID:   sess.UserID,
		SenderRole: party,
		SenderName: lo.Ternary(party == repo.PartyDoctor, t.DoctorName, t.PatientName),
		Text:       text,
		CreatedAt:  s.now(),
	}
	ok, err := s.db.Chat.AppendMessage(ctx, m, party.Other())
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("append message: %w", err)
	}
	if !ok {
		return nil, ErrNotAccepted
	}

	s.metrics.ChatMessage(ctx, string(party))
	s.notify(t)
	return m, nil
}

func (s *chatService) MarkRead(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) error {
	t, party, err := s.participant(ctx, sess, chatID)
	if err != nil {
		return err
	}
	if err := s.db.Chat.MarkRead(ctx, chatID, party, sess.UserID); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("mark chat read: %w", err)
	}
	s.notify(t)
	return nil
}

func (s *chatService) Delete(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) error {
	t, party, err := s.participant(ctx, sess, chatID)
	if err != nil {
		return err
	}
	// a hidden pending request could never be answered
	if party == repo.PartyDoctor && t.Status == repo.ChatPending {
		return ErrPendingRequest
	}
	purged, err := s.db.Chat.Hide(ctx, chatID, party)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("hide chat: %w", err)
	}

	slog.Info("chat hidden", "chat_id", chatID, "party", party, "purged", purged)
	s.notify(t)
	return nil
}

func (s *chatService) Get(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) (*repo.ChatThread, error) {
	t, party, err := s.participant(ctx, sess, chatID)
	if err != nil {
		return nil, err
	}
	if t.HiddenFor(party) {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *chatService) ListChats(ctx context.Context, sess reqctx.Session) ([]*repo.ChatThread, error) {
	threads, err := s.db.Chat.ListThreads(ctx, sess.UserID, sessionParty(sess))
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return threads, nil
}

func (s *chatService) ListMessages(ctx context.Context, sess reqctx.Session, chatID uuid.UUID) ([]*repo.ChatMessage, error) {
	if _, err := s.Get(ctx, sess, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.db.Chat.ListMessages(ctx, chatID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *chatService) WatchChats(ctx context.Context, sess reqctx.Session, fn func([]*repo.ChatThread, error)) (*watch.Subscription, error) {
	return watch.Start(ctx, s.bus,
		[]string{eventbus.ChatUserSubject(sess.UserID)},
		func(ctx context.Context) ([]*repo.ChatThread, error) { return s.ListChats(ctx, sess) },
		fn,
	)
}

func (s *chatService) WatchMessages(ctx context.Context, sess reqctx.Session, chatID uuid.UUID, fn func([]*repo.ChatMessage, error)) (*watch.Subscription, error) {
	if _, err := s.Get(ctx, sess, chatID); err != nil {
		return nil, err
	}
	return watch.Start(ctx, s.bus,
		[]string{eventbus.ChatThreadSubject(chatID)},
		func(ctx context.Context) ([]*repo.ChatMessage, error) { return s.ListMessages(ctx, sess, chatID) },
		fn,
	)
}

// notify signals watchers of both participants and of the thread. It runs
// after the write has committed; failures are logged only.
func (s *chatService) notify(t *repo.ChatThread) {
	for _, subj := range []string{
		eventbus.ChatUserSubject(t.DoctorID),
		eventbus.ChatUserSubject(t.PatientID),
		eventbus.ChatThreadSubject(t.ID),
	} {
		if err := s.bus.Publish(subj, t.ID[:]); err != nil {
			slog.Warn("publish chat event", "subject", subj, "error", err)
		}
	}
}

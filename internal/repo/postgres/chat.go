package postgres

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

const (
	chatsTable    = "chats"
	messagesTable = "chat_messages"
)

var chatColumns = []string{
	"id", "doctor_id", "patient_id", "doctor_name", "patient_name", "status",
	"last_message", "last_message_time", "unread_doctor", "unread_patient",
	"hidden_for_doctor", "hidden_for_patient", "created_at",
}

var messageColumns = []string{
	"id", "chat_id", "sender_id", "sender_role", "sender_name", "text", "created_at", "read",
}

type chats struct{ s *store }

func unreadColumn(p repo.Party) string { return "unread_" + string(p) }
func hiddenColumn(p repo.Party) string { return "hidden_for_" + string(p) }

func scanThread(rs entsql.ColumnScanner) (*repo.ChatThread, error) {
	var t repo.ChatThread
	if err := rs.Scan(&t.ID, &t.DoctorID, &t.PatientID, &t.DoctorName, &t.PatientName, &t.Status,
		&t.LastMessage, &t.LastMessageTime, &t.Unread.Doctor, &t.Unread.Patient,
		&t.HiddenForDoctor, &t.HiddenForPatient, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	return &t, nil
}

func scanMessage(rs entsql.ColumnScanner) (*repo.ChatMessage, error) {
	var m repo.ChatMessage
	if err := rs.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderRole, &m.SenderName, &m.Text,
		&m.CreatedAt, &m.Read); err != nil {
		return nil, fmt.Errorf("scan chat message: %w", err)
	}
	return &m, nil
}

func insertMessage(m *repo.ChatMessage) *entsql.InsertBuilder {
	return builder().Insert(messagesTable).
		Columns(messageColumns...).
		Values(m.ID, m.ChatID, m.SenderID, m.SenderRole, m.SenderName, m.Text, m.CreatedAt, m.Read)
}

func (r chats) CreateThread(ctx context.Context, t *repo.ChatThread, first *repo.ChatMessage) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.s.now()
	}

	return r.s.withTx(ctx, func(tx dialect.Tx) error {
		ins := builder().Insert(chatsTable).
			Columns(chatColumns...).
			Values(t.ID, t.DoctorID, t.PatientID, t.DoctorName, t.PatientName, t.Status,
				t.LastMessage, t.LastMessageTime, t.Unread.Doctor, t.Unread.Patient,
				t.HiddenForDoctor, t.HiddenForPatient, t.CreatedAt).
			OnConflict(entsql.ConflictColumns("doctor_id", "patient_id"), entsql.DoNothing())

		n, err := exec(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}
		if n == 0 {
			return repo.ErrConflict
		}
		if _, err := exec(ctx, tx, insertMessage(first)); err != nil {
			return fmt.Errorf("insert first message: %w", err)
		}
		return nil
	})
}

func (r chats) selectThread(ctx context.Context, ex dialect.ExecQuerier, where *entsql.Predicate) (*repo.ChatThread, error) {
	b := builder()
	sel := b.Select(chatColumns...).From(b.Table(chatsTable)).Where(where)

	var out *repo.ChatThread
	err := queryOne(ctx, ex, sel, func(rs entsql.ColumnScanner) (err error) {
		out, err = scanThread(rs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r chats) GetThread(ctx context.Context, id uuid.UUID) (*repo.ChatThread, error) {
	return r.selectThread(ctx, r.s.drv, entsql.EQ("id", id))
}

func (r chats) FindThread(ctx context.Context, doctorID, patientID uuid.UUID) (*repo.ChatThread, error) {
	return r.selectThread(ctx, r.s.drv, entsql.And(
		entsql.EQ("doctor_id", doctorID),
		entsql.EQ("patient_id", patientID),
	))
}

func (r chats) ListThreads(ctx context.Context, userID uuid.UUID, party repo.Party) ([]*repo.ChatThread, error) {
	b := builder()
	sel := b.Select(chatColumns...).
		From(b.Table(chatsTable)).
		Where(entsql.And(
			entsql.EQ(string(party)+"_id", userID),
			entsql.EQ(hiddenColumn(party), false),
		)).
		OrderBy(entsql.Desc("last_message_time"))

	out := make([]*repo.ChatThread, 0)
	err := query(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) error {
		t, err := scanThread(rs)
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

func (r chats) TransitionStatus(ctx context.Context, id uuid.UUID, from, to repo.ChatStatus) (bool, error) {
	upd := builder().Update(chatsTable).
		Set("status", to).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", from)))

	n, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return false, fmt.Errorf("update chat status: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetThread(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r chats) AppendMessage(ctx context.Context, m *repo.ChatMessage, recipient repo.Party) (bool, error) {
	appended := false
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		// The status guard and the summary update are one statement, so a
		// concurrent reject cannot slip between check and write.
		upd := builder().Update(chatsTable).
			Set("last_message", m.Text).
			Set("last_message_time", m.CreatedAt).
			Add(unreadColumn(recipient), 1).
			Set("hidden_for_doctor", false).
			Set("hidden_for_patient", false).
			Where(entsql.And(entsql.EQ("id", m.ChatID), entsql.EQ("status", repo.ChatAccepted)))

		n, err := exec(ctx, tx, upd)
		if err != nil {
			return fmt.Errorf("update chat summary: %w", err)
		}
		if n == 0 {
			if _, err := r.selectThread(ctx, tx, entsql.EQ("id", m.ChatID)); err != nil {
				return err
			}
			return nil
		}
		if _, err := exec(ctx, tx, insertMessage(m)); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		appended = true
		return nil
	})
	return appended, err
}

func (r chats) MarkRead(ctx context.Context, chatID uuid.UUID, reader repo.Party, readerID uuid.UUID) error {
	return r.s.withTx(ctx, func(tx dialect.Tx) error {
		upd := builder().Update(chatsTable).
			Set(unreadColumn(reader), 0).
			Where(entsql.EQ("id", chatID))
		n, err := exec(ctx, tx, upd)
		if err != nil {
			return fmt.Errorf("reset unread counter: %w", err)
		}
		if n == 0 {
			return repo.ErrNotFound
		}

		msgs := builder().Update(messagesTable).
			Set("read", true).
			Where(entsql.And(
				entsql.EQ("chat_id", chatID),
				entsql.NEQ("sender_id", readerID),
				entsql.EQ("read", false),
			))
		if _, err := exec(ctx, tx, msgs); err != nil {
			return fmt.Errorf("mark messages read: %w", err)
		}
		return nil
	})
}

func (r chats) Hide(ctx context.Context, chatID uuid.UUID, party repo.Party) (bool, error) {
	purged := false
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		upd := builder().Update(chatsTable).
			Set(hiddenColumn(party), true).
			Where(entsql.EQ("id", chatID))
		n, err := exec(ctx, tx, upd)
		if err != nil {
			return fmt.Errorf("hide chat: %w", err)
		}
		if n == 0 {
			return repo.ErrNotFound
		}

		del := builder().Delete(chatsTable).
			Where(entsql.And(
				entsql.EQ("id", chatID),
				entsql.EQ("hidden_for_doctor", true),
				entsql.EQ("hidden_for_patient", true),
			))
		n, err = exec(ctx, tx, del)
		if err != nil {
			return fmt.Errorf("purge chat: %w", err)
		}
		purged = n == 1
		return nil
	})
	return purged, err
}

func (r chats) Unhide(ctx context.Context, chatID uuid.UUID, party repo.Party) error {
	upd := builder().Update(chatsTable).
		Set(hiddenColumn(party), false).
		Where(entsql.EQ("id", chatID))
	n, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return fmt.Errorf("unhide chat: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r chats) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*repo.ChatMessage, error) {
	if _, err := r.GetThread(ctx, chatID); err != nil {
		return nil, err
	}

	b := builder()
	sel := b.Select(messageColumns...).
		From(b.Table(messagesTable)).
		Where(entsql.EQ("chat_id", chatID)).
		OrderBy("created_at", "id")

	out := make([]*repo.ChatMessage, 0)
	err := query(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) error {
		m, err := scanMessage(rs)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// Package eventbus publishes change notifications between services,
// workers and live subscriptions. Subjects follow NATS conventions: tokens
// separated by '.', '*' matches one token and '>' matches the rest.
package eventbus

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/pkg/constants"
)

// Handler receives one published message. Handlers for a single
// subscription run sequentially.
type Handler func(subject string, data []byte)

type Subscription interface {
	Unsubscribe() error
}

type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, h Handler) (Subscription, error)
	Close() error
}

func subject(parts ...string) string {
	return constants.SubjectPrefix + "." + strings.Join(parts, ".")
}

// ChatUserSubject signals a change to the thread list of userID.
func ChatUserSubject(userID uuid.UUID) string { return subject("chat", "user", userID.String()) }

// ChatThreadSubject signals a change to the messages of a thread.
func ChatThreadSubject(chatID uuid.UUID) string { return subject("chat", "thread", chatID.String()) }

func BookingCreatedSubject(bookingID uuid.UUID) string {
	return subject("booking", "created", bookingID.String())
}

func BookingStatusSubject(bookingID uuid.UUID) string {
	return subject("booking", "status", bookingID.String())
}

var (
	BookingCreatedAll = subject("booking", "created", "*")
	BookingStatusAll  = subject("booking", "status", "*")
)

// LastToken returns the final token of a subject, typically a record id.
func LastToken(subj string) string {
	if i := strings.LastIndexByte(subj, '.'); i >= 0 {
		return subj[i+1:]
	}
	return subj
}

// Match reports whether subj matches pattern.
func Match(pattern, subj string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subj, ".")

	for i, p := range pt {
		if p == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}

package chat

import (
	"errors"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

var (
	ErrNotFound           = errors.New("chat not found")
	ErrValidation         = errors.New("invalid chat request")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrPatientOnly        = errors.New("only patients can start a chat request")
	ErrMissingDisplayName = errors.New("a display name is required to start a chat")
	ErrDuplicateThread    = errors.New("a chat with this doctor already exists")
	ErrRequestRejected    = errors.New("the doctor has declined chat requests from this patient")
	ErrNotThreadDoctor    = errors.New("only the doctor of this chat can answer the request")
	ErrNotPending         = errors.New("chat request is no longer pending")
	ErrNotAccepted        = errors.New("messages can only be sent in an accepted chat")
	ErrNotParticipant     = errors.New("not a participant in this chat")
	ErrPendingRequest     = errors.New("answer the chat request before deleting it")
)

// ThreadExistsError is returned by CreateRequest when the pair already has a
// live thread. The thread is visible to the patient again afterwards.
type ThreadExistsError struct {
	Thread *repo.ChatThread
}

func (e *ThreadExistsError) Error() string { return ErrDuplicateThread.Error() }
func (e *ThreadExistsError) Unwrap() error { return ErrDuplicateThread }

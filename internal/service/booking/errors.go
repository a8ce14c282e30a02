package booking

import "errors"

var (
	ErrNotFound          = errors.New("booking not found")
	ErrValidation        = errors.New("invalid booking request")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrSlotUnavailable   = errors.New("the doctor does not offer this time slot")
	ErrSlotTaken         = errors.New("this time slot has already been booked")
	ErrInvalidTransition = errors.New("booking status cannot change this way")
	ErrForbidden         = errors.New("not allowed to access this booking")
)

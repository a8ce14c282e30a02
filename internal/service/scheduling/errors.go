package scheduling

import "errors"

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrInvalidTemplate = errors.New("invalid availability template")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidHorizon  = errors.New("days must be between 1 and 60")
	ErrForbidden       = errors.New("only the doctor or an admin can change this schedule")
)

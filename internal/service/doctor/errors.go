package doctor

import "errors"

var (
	ErrNotFound   = errors.New("doctor not found")
	ErrValidation = errors.New("invalid doctor")
)

package pasetotoken

import (
	"errors"
	"fmt"
)

// ErrWrongTokenType is returned by Verify for tokens that are not access tokens.
var ErrWrongTokenType = errors.New("not an access token")

// ErrConfig reports a key or manager misconfiguration detected at startup.
type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto: " + e.Msg }

// ErrInvalidToken wraps every parse, signature and claim failure so callers
// can answer 401 without inspecting the cause.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("invalid access token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }

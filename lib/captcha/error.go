package captcha

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRenderFailed means the challenge image could not be produced. This
	// is an infrastructure failure, not a user error.
	ErrRenderFailed = errors.New("captcha: can't render image")

	// ErrMissingField means the caller omitted the challenge ID or answer.
	ErrMissingField = errors.New("captcha: missing field")

	// ErrExpiredOrUnknown means the ID was never issued, already consumed,
	// or past its TTL. The three cases are indistinguishable on purpose.
	ErrExpiredOrUnknown = errors.New("captcha: challenge expired or unknown")

	// ErrMismatch means the submitted answer did not match. The challenge
	// is consumed anyway; the only recovery is a fresh one.
	ErrMismatch = errors.New("captcha: answer does not match")
)

func NewError(verb, publicReason string, privateReason error) *Error {
	return &Error{
		Verb:          verb,
		PublicReason:  publicReason,
		PrivateReason: privateReason,
		StatusCode:    http.StatusBadRequest,
	}
}

// Error carries a public reason safe to show the client separately from the
// private cause that goes to the logs.
type Error struct {
	PrivateReason error
	Verb          string
	PublicReason  string
	StatusCode    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("captcha: error when processing challenge: %s: %v", e.Verb, e.PrivateReason)
}

func (e *Error) Unwrap() error {
	return e.PrivateReason
}

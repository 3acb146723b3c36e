package errs

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Coded errors surfaced to callers of the messaging core. A failed send is
// distinguished by code, not by message text, so handlers can map it to an
// ack without string matching.
var (
	// ErrNotFriends: the two identities have no active friendship. The
	// attempted action is dropped, never retried.
	ErrNotFriends = NewCodeError(1001, "not friends")

	// ErrPersistence: the store rejected a write. The action is terminal for
	// this attempt; the caller may retry by resubmitting.
	ErrPersistence = NewCodeError(1002, "persistence failed")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
	cause  error
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: e.Detail, cause: e.cause}
}

// WithDetail returns a copy carrying extra context; the original sentinel is
// never mutated.
func (e *CodeError) WithDetail(detail string) *CodeError {
	c := e.clone()
	if c.Detail == "" {
		c.Detail = detail
	} else {
		c.Detail += ", " + detail
	}
	return c
}

// WithCause returns a copy wrapping the underlying error.
func (e *CodeError) WithCause(err error) *CodeError {
	c := e.clone()
	c.cause = err
	return c
}

func (e *CodeError) Unwrap() error { return e.cause }

// Is matches by code so errors.Is(err, ErrNotFriends) works across
// WithDetail/WithCause copies.
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	return ok && t.Code == e.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 4)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	if e.cause != nil {
		v = append(v, e.cause.Error())
	}
	return strings.Join(v, " ")
}

func New(msg string) error { return errors.New(msg) }

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

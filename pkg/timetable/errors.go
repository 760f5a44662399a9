package timetable

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes timetable errors.
type ErrorKind string

const (
	KindPeriodNotFound       ErrorKind = "period-not-found"
	KindProgramNotFound      ErrorKind = "program-not-found"
	KindCourseNotFound       ErrorKind = "course-not-found"
	KindGroupNotFound        ErrorKind = "group-not-found"
	KindInvalidOptions       ErrorKind = "invalid-options"
	KindDiscovery            ErrorKind = "discovery"
	KindScheduleNotPublished ErrorKind = "schedule-not-published"
)

// Error is returned by every failing timetable operation. Input holds the
// offending caller input, if any; Err is the underlying cause.
type Error struct {
	Kind    ErrorKind
	Input   any
	Message string
	Err     error
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrPeriodNotFound       = &Error{Kind: KindPeriodNotFound}
	ErrProgramNotFound      = &Error{Kind: KindProgramNotFound}
	ErrCourseNotFound       = &Error{Kind: KindCourseNotFound}
	ErrGroupNotFound        = &Error{Kind: KindGroupNotFound}
	ErrInvalidOptions       = &Error{Kind: KindInvalidOptions}
	ErrDiscovery            = &Error{Kind: KindDiscovery}
	ErrScheduleNotPublished = &Error{Kind: KindScheduleNotPublished}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Input != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Input)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsNotFound reports whether err is one of the resolution misses.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindPeriodNotFound, KindProgramNotFound, KindCourseNotFound, KindGroupNotFound:
		return true
	}
	return false
}

func notFound(kind ErrorKind, what string, input any) error {
	return &Error{Kind: kind, Input: input, Message: what + " not found"}
}

func invalidOptions(format string, args ...any) error {
	return &Error{Kind: KindInvalidOptions, Message: "invalid options: " + fmt.Sprintf(format, args...)}
}

func discoveryError(what string, err error) error {
	return &Error{Kind: KindDiscovery, Message: "discovery failed: " + what, Err: err}
}

// NotPublished builds the error raised when a schedule exists but is not
// public yet.
func NotPublished(input any) error {
	return &Error{Kind: KindScheduleNotPublished, Input: input, Message: "schedule not published"}
}

package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide how to recover
// without inspecting error strings.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindTransport
	KindToolFailure
	KindValidation
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindToolFailure:
		return "tool"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	default:
		return "error"
	}
}

// Error is the single error type crossing the orchestrator boundary.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrThreadNotFound is returned by ThreadStore.GetThread for unknown ids.
var ErrThreadNotFound = errors.New("thread not found")

// Annotate renders err as the single chat-log line shown to the user.
func Annotate(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("[error] %v", err)
}

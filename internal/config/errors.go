package config

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration failures.
type ErrorKind int

// Configuration error kinds.
const (
	MissingField ErrorKind = iota + 1
	UnresolvedPlaceholder
	MalformedSource
)

func (k ErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case UnresolvedPlaceholder:
		return "unresolved placeholder"
	case MalformedSource:
		return "malformed source"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by LoadProgram, ParseProgram and LoadSettings. It is always
// fatal to startup.
type Error struct {
	Kind  ErrorKind
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a configuration error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

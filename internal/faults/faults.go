// Package faults classifies handler errors into the categories callers act on.
package faults

import "fmt"

type Category string

const (
	InvalidParameter Category = "InvalidParameter"
	NotFound         Category = "NotFound"
	Conflict         Category = "Conflict"
	PropertyServer   Category = "PropertyServer"
	NotAuthorized    Category = "NotAuthorized"
)

type TypedError struct {
	Category Category
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(category Category, message string, cause error) *TypedError {
	return &TypedError{Category: category, Message: message, Cause: cause}
}

// Invalidf builds an InvalidParameter error.
func Invalidf(format string, args ...any) error {
	return New(InvalidParameter, fmt.Sprintf(format, args...), nil)
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) error {
	return New(NotFound, fmt.Sprintf(format, args...), nil)
}

// Conflictf builds a Conflict error.
func Conflictf(format string, args ...any) error {
	return New(Conflict, fmt.Sprintf(format, args...), nil)
}

// Server wraps a remote store failure.
func Server(operation string, cause error) error {
	return New(PropertyServer, operation, cause)
}

// IsCategory reports whether err, or anything it wraps, is a TypedError of
// the category. Every branch of an errors.Join and every Cause is searched.
func IsCategory(err error, category Category) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *TypedError:
		if e != nil && e.Category == category {
			return true
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if IsCategory(inner, category) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsCategory(u.Unwrap(), category)
	}
	return false
}

// IsCallerError reports whether the error was caused by the request rather than the store.
func IsCallerError(err error) bool {
	return IsCategory(err, InvalidParameter) || IsCategory(err, NotFound) || IsCategory(err, Conflict)
}

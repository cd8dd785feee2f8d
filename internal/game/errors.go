package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// Kind names an error category for transports.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
)

// Error is implemented by every typed error the package returns.
type Error interface {
	error
	Kind() Kind
	Ref() (entity, id string)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }
func (e *NotFoundError) Kind() Kind { return KindNotFound }
func (e *NotFoundError) Ref() (string, string) { return e.Entity, e.ID }

type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %s: %s", e.Entity, e.ID, e.State, e.Reason)
}
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
func (e *InvalidStateError) Kind() Kind { return KindInvalidState }
func (e *InvalidStateError) Ref() (string, string) { return e.Entity, e.ID }

type UnauthorizedError struct {
	Entity string
	ID     string
	Actor  string
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %q not allowed on %s %s: %s", e.Actor, e.Entity, e.ID, e.Reason)
}
func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }
func (e *UnauthorizedError) Kind() Kind { return KindUnauthorized }
func (e *UnauthorizedError) Ref() (string, string) { return e.Entity, e.ID }

type ValidationError struct {
	Entity string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s %s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s for %s %s: %s", e.Field, e.Entity, e.ID, e.Reason)
}
func (e *ValidationError) Unwrap() error { return ErrValidation }
func (e *ValidationError) Kind() Kind { return KindValidation }
func (e *ValidationError) Ref() (string, string) { return e.Entity, e.ID }

type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s conflict: %s", e.Entity, e.ID, e.Reason)
}
func (e *ConflictError) Unwrap() error { return ErrConflict }
func (e *ConflictError) Kind() Kind { return KindConflict }
func (e *ConflictError) Ref() (string, string) { return e.Entity, e.ID }

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

func InvalidState(entity string, id any, state any, reason string) error {
	return &InvalidStateError{Entity: entity, ID: fmt.Sprint(id), State: fmt.Sprint(state), Reason: reason}
}

func Unauthorized(entity string, id any, actor, reason string) error {
	return &UnauthorizedError{Entity: entity, ID: fmt.Sprint(id), Actor: actor, Reason: reason}
}

func Invalid(entity string, id any, field, reason string) error {
	ref := ""
	if id != nil {
		ref = fmt.Sprint(id)
	}
	return &ValidationError{Entity: entity, ID: ref, Field: field, Reason: reason}
}

func Conflict(entity string, id any, reason string) error {
	return &ConflictError{Entity: entity, ID: fmt.Sprint(id), Reason: reason}
}

// KindOf returns the category of err, or "" for untyped errors.
func KindOf(err error) Kind {
	var typed Error
	if errors.As(err, &typed) {
		return typed.Kind()
	}
	return ""
}

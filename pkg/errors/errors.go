// Package errors provides structured error handling for the weave runtime.
//
// The runtime is fail-soft: a failing render, effect or event handler never
// stops state delivery and never surfaces a user-visible message. Failures
// are reported to a pluggable global [Handler] instead.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindRender indicates a failing render callback.
	KindRender
	// KindEffect indicates a failing effect callback.
	KindEffect
	// KindEvent indicates a failing event handler.
	KindEvent
	// KindRoute indicates a route resolution problem.
	KindRoute
	// KindHost indicates a failure reported by the host DOM or history.
	KindHost
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates a configuration error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindEffect:
		return "effect"
	case KindEvent:
		return "event"
	case KindRoute:
		return "route"
	case KindHost:
		return "host"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Sentinel errors for the runtime's silent no-op paths.
var (
	// ErrNoRouteMatch is used when a path matches no registered route.
	ErrNoRouteMatch = stderrors.New("no route matches path")
	// ErrSelectorMiss is used when an event selector matches no element.
	ErrSelectorMiss = stderrors.New("selector matched no element")
	// ErrDisposed is used when an operation targets a torn-down component.
	ErrDisposed = stderrors.New("component disposed")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// WeaveError represents a structured error in the weave runtime.
type WeaveError struct {
	// Op is the operation that failed (e.g., "component.render").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Component is the tag name of the component involved, if any.
	Component string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *WeaveError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s [%s] component=%s: %v", e.Op, e.Kind, e.Component, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *WeaveError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "observable.deliver").
	Op string
	// Kind is the kind of callback that panicked. Zero means unspecified.
	Kind ErrorKind
	// Component is the tag name of the component involved, if any.
	Component string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Handler receives errors reported by the weave runtime.
type Handler interface {
	// HandleError is called when an error occurs.
	HandleError(err *WeaveError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

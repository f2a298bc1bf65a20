package errors

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var pkgLogger atomic.Pointer[zerolog.Logger]

// SetLogger installs the structured logger used by LogHandler values that
// carry no logger of their own.
func SetLogger(l zerolog.Logger) { pkgLogger.Store(&l) }

func logger() *zerolog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	pkgLogger.CompareAndSwap(nil, &l)
	return pkgLogger.Load()
}

// LogHandler is a Handler that logs errors through zerolog.
type LogHandler struct {
	// Logger overrides the package logger when non-nil.
	Logger *zerolog.Logger
	// Verbose enables stack traces in the output.
	Verbose bool
}

func (h *LogHandler) log() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logger()
}

// HandleError logs a WeaveError at error level.
func (h *LogHandler) HandleError(err *WeaveError) {
	if err == nil {
		return
	}
	ev := h.log().Error().
		Str("op", err.Op).
		Str("kind", err.Kind.String()).
		Err(err.Err)
	if err.Component != "" {
		ev = ev.Str("component", err.Component)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("weave error")
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.log().Error().
		Str("op", err.Op).
		Str("kind", err.Kind.String()).
		Interface("value", err.Value)
	if err.Component != "" {
		ev = ev.Str("component", err.Component)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("weave panic")
}

package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

type handlerSlot struct{ h Handler }

var active atomic.Pointer[handlerSlot]

func init() {
	active.Store(&handlerSlot{h: &LogHandler{}})
}

// SetHandler installs h as the process-wide handler and returns the one it
// replaced. A nil h restores a LogHandler over the package logger.
func SetHandler(h Handler) (previous Handler) {
	if h == nil {
		h = &LogHandler{}
	}
	return active.Swap(&handlerSlot{h: h}).h
}

// CurrentHandler returns the installed handler.
func CurrentHandler() Handler {
	return active.Load().h
}

// Report stamps err and hands it to the current handler.
func Report(err *WeaveError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	CurrentHandler().HandleError(err)
}

// ReportPanic stamps err and hands it to the current handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	CurrentHandler().HandlePanic(err)
}

func newPanic(op string, kind ErrorKind, component string, value any) *PanicError {
	return &PanicError{
		Op:         op,
		Kind:       kind,
		Component:  component,
		Value:      value,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// Recover reports a panic in progress. It must be deferred directly:
//
//	defer errors.Recover("observable.deliver")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(newPanic(op, KindPanic, "", r))
	}
}

// RecoverWith is Recover followed by fn with the reported panic.
func RecoverWith(op string, fn func(*PanicError)) {
	if r := recover(); r != nil {
		p := newPanic(op, KindPanic, "", r)
		ReportPanic(p)
		if fn != nil {
			fn(p)
		}
	}
}

// Guard runs fn and reports a panic from it as a PanicError of kind,
// attributed to component. It returns false when fn panicked.
func Guard(op string, kind ErrorKind, component string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ReportPanic(newPanic(op, kind, component, r))
			ok = false
		}
	}()
	fn()
	return true
}

// CaptureStack formats the caller's stack, one "function (file:line)"
// entry per frame, leaving out runtime frames.
func CaptureStack() string {
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		if f.Function != "" && !strings.HasPrefix(f.Function, "runtime.") {
			fmt.Fprintf(&sb, "%s (%s:%d)\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

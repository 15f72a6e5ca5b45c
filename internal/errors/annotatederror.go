// Package errors extends the standard library errors with slog annotations and the source location where the
// error was created or wrapped.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

// annotatedError is an error decorated with slog attributes and the location of its creation.
type annotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates an error without source location meant to be declared as a package level variable and
// compared with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // sentinel constructor
}

// New creates an error annotated with attrs and the caller location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		cause:  nil,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip New and callerSource
	}
}

// Wrap annotates err with context message and slog attributes. The caller location is recorded so that
// [SlogError] can point to where the error surfaced.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		cause:  err,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip Wrap and callerSource
	}
}

// DecoratePanic converts a recovered panic value into an error pointing at the panicking line.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var cause error
	if err, ok := excp.(error); ok {
		cause = err
	} else {
		cause = NewSentinel(fmt.Sprint(excp))
	}
	return &annotatedError{
		msg:    "panic",
		cause:  cause,
		attrs:  nil,
		source: panicSource(),
	}
}

// SlogError converts err into a slog group containing the message, all annotations in the error chain, and the
// innermost source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	var (
		annotations []any
		source      string
	)
	for e := err; e != nil; e = errors.Unwrap(e) {
		var ae *annotatedError
		if ae, _ = e.(*annotatedError); ae == nil {
			continue
		}
		for _, a := range ae.attrs {
			annotations = append(annotations, a)
		}
		if ae.source != "" {
			source = ae.source
		}
	}

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// panicSource walks the stack to the frame right after runtime.gopanic.
func panicSource() string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if strings.HasPrefix(frame.Function, "runtime.gopanic") {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

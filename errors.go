// Package yulaos wires the kernel systems layer (page allocator, scheduler,
// VFS/IPC fabric, futexes, compositor, and tiling window manager) into one
// embeddable System, standing in for the monolithic kernel image the
// specification's components are normally linked into.
package yulaos

import (
	"errors"
	"fmt"
)

// Error is a structured systems-layer error carrying the failing operation,
// an errno-style category, and the originating subsystem, in the manner of
// go-ublk's *Error.
type Error struct {
	Op      string  // operation that failed, e.g. "alloc_pages", "waitpid"
	Subsys  string  // originating component: "pmm", "sched", "vfs", "comp", "wm", ...
	Code    ErrCode // high-level category
	Msg     string  // human-readable detail
	Inner   error   // wrapped error, if any
}

func (e *Error) Error() string {
	var parts []string
	if e.Subsys != "" {
		parts = append(parts, e.Subsys)
	}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("yulaos: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("yulaos: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrCode is a high-level error category, mirroring the kernel's errno
// constants at the granularity the specification's contracts actually
// distinguish (ENOMEM, EAGAIN/EOF, ENOENT, EPIPE, EINVAL, ETIMEDOUT).
type ErrCode string

const (
	ErrCodeOutOfMemory   ErrCode = "out of memory"
	ErrCodeNotFound      ErrCode = "not found"
	ErrCodeExists        ErrCode = "already exists"
	ErrCodeBrokenPipe    ErrCode = "broken pipe"
	ErrCodeInvalid       ErrCode = "invalid argument"
	ErrCodeTimeout       ErrCode = "timed out"
	ErrCodeInterrupted   ErrCode = "interrupted"
	ErrCodeWouldBlock    ErrCode = "would block"
	ErrCodeProtocol      ErrCode = "protocol error"
	ErrCodeStateMismatch ErrCode = "state mismatch"
)

// NewError builds a structured error for op in subsys.
func NewError(subsys, op string, code ErrCode, msg string) *Error {
	return &Error{Subsys: subsys, Op: op, Code: code, Msg: msg}
}

// WrapError re-tags an existing error with an operation and subsystem,
// preserving its code when it is already a *Error.
func WrapError(subsys, op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if e, ok := inner.(*Error); ok {
		return &Error{Subsys: subsys, Op: op, Code: e.Code, Msg: e.Msg, Inner: inner}
	}
	return &Error{Subsys: subsys, Op: op, Code: ErrCodeInvalid, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err (or anything it wraps) carries code.
func IsCode(err error, code ErrCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

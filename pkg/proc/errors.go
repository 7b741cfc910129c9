package proc

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorKind classifies a failed ptrace-family request.
type ErrorKind uint8

const (
	Unspecified        ErrorKind = iota // Failure reported without an error code
	NoSuchProcess                       // ESRCH
	InvalidArgument                     // EINVAL
	ResourceBusy                        // EBUSY
	PermissionDenied                    // EPERM
	NotSupported                        // ENOTSUP, continue only
	Other                               // Any other error code
	UnexpectedResponse                  // Response code that is neither 0 nor -1
	AlreadyAttached                     // Registry refused a second owner
)

// String maps ErrorKind to its string representation.
func (k ErrorKind) String() string {
	switch k {
	case Unspecified:
		return "Unspecified"
	case NoSuchProcess:
		return "NoSuchProcess"
	case InvalidArgument:
		return "InvalidArgument"
	case ResourceBusy:
		return "ResourceBusy"
	case PermissionDenied:
		return "PermissionDenied"
	case NotSupported:
		return "NotSupported"
	case Other:
		return "Other"
	case UnexpectedResponse:
		return "UnexpectedResponse"
	case AlreadyAttached:
		return "AlreadyAttached"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

var (
	ErrUnspecified        = errors.New("unspecified ptrace failure")
	ErrNoSuchProcess      = errors.New("no such process")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrResourceBusy       = errors.New("resource busy")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotSupported       = errors.New("operation not supported")
	ErrOther              = errors.New("ptrace error")
	ErrUnexpectedResponse = errors.New("unexpected ptrace response")
	ErrAlreadyAttached    = errors.New("process already attached")
)

var kindSentinels = map[ErrorKind]error{
	Unspecified:        ErrUnspecified,
	NoSuchProcess:      ErrNoSuchProcess,
	InvalidArgument:    ErrInvalidArgument,
	ResourceBusy:       ErrResourceBusy,
	PermissionDenied:   ErrPermissionDenied,
	NotSupported:       ErrNotSupported,
	Other:              ErrOther,
	UnexpectedResponse: ErrUnexpectedResponse,
	AlreadyAttached:    ErrAlreadyAttached,
}

// Request names used in error messages.
const (
	OpAttach   = "PTRACE_ATTACH"
	OpDetach   = "PTRACE_DETACH"
	OpContinue = "PTRACE_CONTINUE"
)

// PtraceError is returned by attach, detach and continue when the request
// fails. Errno is zero when the kernel did not report an error code.
type PtraceError struct {
	Op       string
	Pid      int
	Kind     ErrorKind
	Response int
	Errno    syscall.Errno
}

func (e *PtraceError) Error() string {
	switch e.Kind {
	case Unspecified:
		return fmt.Sprintf("%s of %d: ptrace response: %d (%s)", e.Op, e.Pid, e.Response, e.Kind)
	case UnexpectedResponse:
		if e.Errno != 0 {
			return fmt.Sprintf("%s of %d: unexpected response code: %d, errno: %d (%s)", e.Op, e.Pid, e.Response, int(e.Errno), e.Kind)
		}
		return fmt.Sprintf("%s of %d: unexpected response code: %d (%s)", e.Op, e.Pid, e.Response, e.Kind)
	case AlreadyAttached:
		return fmt.Sprintf("%s of %d: process is already attached (%s)", e.Op, e.Pid, e.Kind)
	case Other:
		return fmt.Sprintf("%s of %d: response: %d, errno: %d (%s)", e.Op, e.Pid, e.Response, int(e.Errno), e.Kind)
	default:
		return fmt.Sprintf("%s of %d: response: %d, errno: %s (%s)", e.Op, e.Pid, e.Response, errnoName(e.Errno), e.Kind)
	}
}

// Is reports whether target is the sentinel for e's kind. A registry
// refusal also matches ErrResourceBusy.
func (e *PtraceError) Is(target error) bool {
	if target == kindSentinels[e.Kind] {
		return true
	}
	return e.Kind == AlreadyAttached && target == ErrResourceBusy
}

func (e *PtraceError) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// Code returns the raw error code, or 0 if none was reported.
func (e *PtraceError) Code() int {
	return int(e.Errno)
}

func errnoName(errno syscall.Errno) string {
	switch errno {
	case syscall.ESRCH:
		return "ESRCH"
	case syscall.EINVAL:
		return "EINVAL"
	case syscall.EBUSY:
		return "EBUSY"
	case syscall.EPERM:
		return "EPERM"
	case syscall.ENOTSUP:
		return "ENOTSUP"
	}
	return fmt.Sprintf("%d", int(errno))
}

// ClassifyOptions selects which optional error kinds a request may report.
type ClassifyOptions struct {
	// AllowNotSupported maps ENOTSUP to NotSupported instead of Other.
	AllowNotSupported bool
}

// Classify converts the response code and errno of a ptrace request into
// an error. It returns nil when response is 0. errno == 0 means no error
// code was available.
func Classify(op string, pid, response int, errno syscall.Errno, opts ClassifyOptions) error {
	if response == 0 {
		return nil
	}
	e := &PtraceError{Op: op, Pid: pid, Response: response, Errno: errno}
	switch {
	case response == -1 && errno == 0:
		e.Kind = Unspecified
	case response == -1:
		e.Kind = kindForErrno(errno, opts)
	default:
		e.Kind = UnexpectedResponse
	}
	return e
}

func kindForErrno(errno syscall.Errno, opts ClassifyOptions) ErrorKind {
	switch errno {
	case syscall.ESRCH:
		return NoSuchProcess
	case syscall.EINVAL:
		return InvalidArgument
	case syscall.EBUSY:
		return ResourceBusy
	case syscall.EPERM:
		return PermissionDenied
	case syscall.ENOTSUP:
		if opts.AllowNotSupported {
			return NotSupported
		}
	}
	return Other
}

// EnumerationError is returned when the list of pids cannot be obtained.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("all_pids failed: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// TaskError is returned when the kernel refuses a task handle. Code is the
// raw kernel return value (kern_return_t on Darwin, errno elsewhere).
type TaskError struct {
	Call string
	Pid  int
	Code int
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Call, e.Code)
}

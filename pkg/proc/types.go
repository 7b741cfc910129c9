package proc

import "fmt"

// UnknownProcessName is the name reported for a process whose name could
// not be resolved.
const UnknownProcessName = "(Unknown name)"

// ProcessEntry is one element of a process listing.
type ProcessEntry struct {
	Pid  int
	Name string
}

// TraceState is the state of a pid under trace control.
type TraceState uint8

const (
	StateUnattached TraceState = iota
	StateAttached              // Attach succeeded, stop not yet observed
	StateStopped               // Wait reported a stop
	StateRunning               // Continue succeeded
	StateExited                // Wait reported exit or death by signal
	StateDetached              // Detach succeeded
)

// String maps TraceState to string representation.
func (s TraceState) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttached:
		return "attached"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateDetached:
		return "detached"
	default:
		return fmt.Sprintf("TraceState(%d)", uint8(s))
	}
}

// TracedProcess is a pid this backend has successfully attached to.
type TracedProcess struct {
	Pid   int
	State TraceState
}

// Task is a kernel-issued handle granting access to the memory of Pid.
// Port is a mach port name on Darwin and a file descriptor on Linux.
type Task struct {
	Pid  int
	Port uint32
}

// WaitResult is the outcome of a wait call. Pid is the pid reported by the
// kernel, 0 when a non-blocking poll had nothing to report.
type WaitResult struct {
	Pid    int
	Status int
}

// Privileges describes what the current process is allowed to trace.
type Privileges struct {
	Euid         int
	Root         bool
	CapSysPtrace bool
	// PtraceScope is the Yama ptrace_scope value, -1 when unavailable.
	PtraceScope int
	Notes       []string
}

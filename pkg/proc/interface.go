package proc

import "context"

// Controller is the set of process-control operations a backend exposes.
// All methods are synchronous. Wait may block for an arbitrary time and
// must be called from a goroutine the caller is willing to dedicate to it.
type Controller interface {
	Enumerator
	Attacher
	ExecutionController
	TaskResolver

	// Traced returns the pids currently under trace control.
	Traced() []TracedProcess
	// Privileges reports what the current process may trace.
	Privileges() Privileges
}

// Enumerator lists live processes.
type Enumerator interface {
	// ListProcesses returns every visible process. Processes whose name
	// cannot be resolved are reported with UnknownProcessName.
	ListProcesses(ctx context.Context) ([]ProcessEntry, error)
}

// Attacher starts and stops tracing of a process.
type Attacher interface {
	Attach(pid int) (TracedProcess, error)
	Detach(pid int) (TracedProcess, error)
}

// ExecutionController resumes traced processes and waits for status changes.
type ExecutionController interface {
	// Continue resumes a stopped tracee. addr is the resume address (1
	// resumes where the process stopped) and data the signal to deliver.
	Continue(pid int, addr uintptr, data int) (TracedProcess, error)
	// Wait blocks until pid changes state and returns the raw status.
	Wait(pid, options int) (WaitResult, error)
	// WaitContext is like Wait but returns ctx.Err() once ctx is done.
	WaitContext(ctx context.Context, pid, options int) (WaitResult, error)
}

// TaskResolver acquires memory-access handles. Platforms without such a
// primitive return an error matching ErrNotSupported.
type TaskResolver interface {
	ResolveTask(pid int) (Task, error)
	ReleaseTask(task Task) error
}

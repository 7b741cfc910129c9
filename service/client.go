package service

import (
	"time"

	"github.com/mem-editor/procctl/service/api"
)

// Client represents a process-control service client. All client methods
// are synchronous.
type Client interface {
	// ListProcesses returns every process visible to the server.
	ListProcesses() ([]api.ProcessEntry, error)

	// Attach starts tracing pid.
	Attach(pid int) (api.TracedProcess, error)
	// Detach stops tracing pid.
	Detach(pid int) (api.TracedProcess, error)
	// Continue resumes pid at addr, delivering signal data.
	Continue(pid int, addr uint64, data int) (api.TracedProcess, error)
	// Wait blocks until pid changes state or timeout elapses. A zero timeout
	// waits forever. Failures of the wait itself are reported in the result.
	Wait(pid, options int, timeout time.Duration) (*api.WaitResult, error)

	// TaskForPid acquires a memory-access handle for pid.
	TaskForPid(pid int) (api.Task, error)
	// ReleaseTask releases a handle returned by TaskForPid.
	ReleaseTask(task api.Task) error

	// Traced returns the processes the server is tracing.
	Traced() ([]api.TracedProcess, error)
	// Privileges reports what the server is allowed to trace.
	Privileges() (api.Privileges, error)

	// GetVersion returns version information about the server.
	GetVersion() (*api.GetVersionOut, error)
	// IsMulticlient returns true if the headless instance is multiclient.
	IsMulticlient() bool

	// Disconnect closes the connection to the server without detaching
	// anything.
	Disconnect() error
}

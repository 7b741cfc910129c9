//go:build !linux && !darwin && !freebsd

package native

import (
	"context"
	"fmt"

	"github.com/mem-editor/procctl/pkg/proc"
)

// Backend reports ErrNotSupported for every operation on this platform.
type Backend struct{}

var _ proc.Controller = &Backend{}

// New returns a Backend whose operations are not supported.
func New(config Config) *Backend {
	return &Backend{}
}

func (b *Backend) Close() error { return nil }

func (b *Backend) ListProcesses(ctx context.Context) ([]proc.ProcessEntry, error) {
	return nil, notSupported("list processes")
}

func (b *Backend) Attach(pid int) (proc.TracedProcess, error) {
	return proc.TracedProcess{}, notSupported(proc.OpAttach)
}

func (b *Backend) Detach(pid int) (proc.TracedProcess, error) {
	return proc.TracedProcess{}, notSupported(proc.OpDetach)
}

func (b *Backend) Continue(pid int, addr uintptr, data int) (proc.TracedProcess, error) {
	return proc.TracedProcess{}, notSupported(proc.OpContinue)
}

func (b *Backend) Wait(pid, options int) (proc.WaitResult, error) {
	return proc.WaitResult{}, notSupported("wait")
}

func (b *Backend) WaitContext(ctx context.Context, pid, options int) (proc.WaitResult, error) {
	return proc.WaitResult{}, notSupported("wait")
}

func (b *Backend) ResolveTask(pid int) (proc.Task, error) {
	return proc.Task{}, notSupported("task_for_pid")
}

func (b *Backend) ReleaseTask(task proc.Task) error {
	return notSupported("release task")
}

func (b *Backend) Traced() []proc.TracedProcess { return nil }

func (b *Backend) Privileges() proc.Privileges {
	return proc.Privileges{Euid: -1, PtraceScope: -1}
}

func notSupported(op string) error {
	return fmt.Errorf("%s: %w", op, proc.ErrNotSupported)
}

//go:build (darwin && !cgo) || freebsd

package native

import (
	"fmt"

	"github.com/mem-editor/procctl/pkg/proc"
)

func resolveTask(pid int) (proc.Task, error) {
	return proc.Task{}, fmt.Errorf("task_for_pid of %d: %w", pid, proc.ErrNotSupported)
}

func releaseTask(task proc.Task) error {
	return fmt.Errorf("release of task %d: %w", task.Port, proc.ErrNotSupported)
}

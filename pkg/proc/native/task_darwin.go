//go:build darwin && cgo

package native

/*
#include <mach/mach.h>
#include <mach/mach_traps.h>

static kern_return_t procctl_task_for_pid(int pid, mach_port_name_t *port) {
	return task_for_pid(mach_task_self(), pid, port);
}

static kern_return_t procctl_release_task(mach_port_name_t port) {
	return mach_port_deallocate(mach_task_self(), port);
}
*/
import "C"

import (
	"fmt"

	"github.com/mem-editor/procctl/pkg/proc"
)

// resolveTask calls task_for_pid. It requires root or the debugger
// entitlement.
func resolveTask(pid int) (proc.Task, error) {
	var port C.mach_port_name_t
	kret := C.procctl_task_for_pid(C.int(pid), &port)
	if kret != C.KERN_SUCCESS {
		return proc.Task{}, &proc.TaskError{Call: "task_for_pid", Pid: pid, Code: int(kret)}
	}
	return proc.Task{Pid: pid, Port: uint32(port)}, nil
}

func releaseTask(task proc.Task) error {
	if kret := C.procctl_release_task(C.mach_port_name_t(task.Port)); kret != C.KERN_SUCCESS {
		return fmt.Errorf("mach_port_deallocate of task %d failed: %d", task.Port, int(kret))
	}
	return nil
}

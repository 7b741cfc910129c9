package native

import (
	"errors"
	"fmt"
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/mem-editor/procctl/pkg/proc"
)

// resolveTask opens /proc/<pid>/mem. The kernel grants it under the same
// rules as PTRACE_ATTACH, so the descriptor is the Linux equivalent of a
// task port.
func resolveTask(pid int) (proc.Task, error) {
	path := fmt.Sprintf("/proc/%d/mem", pid)
	fd, err := sys.Open(path, sys.O_RDWR|sys.O_CLOEXEC, 0)
	if errors.Is(err, sys.EACCES) || errors.Is(err, sys.EROFS) {
		fd, err = sys.Open(path, sys.O_RDONLY|sys.O_CLOEXEC, 0)
	}
	if err != nil {
		code := -1
		var errno syscall.Errno
		if errors.As(err, &errno) {
			code = int(errno)
		}
		return proc.Task{}, &proc.TaskError{Call: "open " + path, Pid: pid, Code: code}
	}
	return proc.Task{Pid: pid, Port: uint32(fd)}, nil
}

func releaseTask(task proc.Task) error {
	return sys.Close(int(task.Port))
}

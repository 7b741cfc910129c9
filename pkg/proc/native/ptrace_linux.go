package native

import (
	"syscall"

	sys "golang.org/x/sys/unix"
)

// The kernel refuses PTRACE_DETACH until the tracee has entered the
// attach stop.
const detachNeedsStop = true

// ptraceAttach executes ptrace PTRACE_ATTACH.
func ptraceAttach(pid int) (int, syscall.Errno) {
	return ptrace(sys.PTRACE_ATTACH, pid, 0, 0)
}

// ptraceDetach executes ptrace PTRACE_DETACH without delivering a signal.
func ptraceDetach(pid int) (int, syscall.Errno) {
	return ptrace(sys.PTRACE_DETACH, pid, 0, 0)
}

// ptraceCont executes ptrace PTRACE_CONT. addr is ignored by Linux.
func ptraceCont(pid int, addr uintptr, sig int) (int, syscall.Errno) {
	return ptrace(sys.PTRACE_CONT, pid, addr, uintptr(sig))
}

func ptrace(request, pid int, addr, data uintptr) (int, syscall.Errno) {
	r1, _, errno := sys.Syscall6(sys.SYS_PTRACE, uintptr(request), uintptr(pid), addr, data, 0, 0)
	return int(r1), errno
}

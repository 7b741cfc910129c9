//go:build darwin || freebsd

package native

import (
	"syscall"

	sys "golang.org/x/sys/unix"
)

const detachNeedsStop = false

// Request numbers shared by Darwin and FreeBSD <sys/ptrace.h>.
const (
	ptContinue = 7
	ptAttach   = 10
	ptDetach   = 11
)

// resumeInPlace is the address that resumes a process where it stopped.
const resumeInPlace = 1

// continueAddr maps the zero address, which no caller can mean literally,
// to resumeInPlace.
func continueAddr(addr uintptr) uintptr {
	if addr == 0 {
		return resumeInPlace
	}
	return addr
}

// ptraceAttach executes the PT_ATTACH ptrace call.
func ptraceAttach(pid int) (int, syscall.Errno) {
	return ptrace(ptAttach, pid, 0, 0)
}

// ptraceDetach executes the PT_DETACH ptrace call, resuming the process
// where it stopped.
func ptraceDetach(pid int) (int, syscall.Errno) {
	return ptrace(ptDetach, pid, resumeInPlace, 0)
}

// ptraceCont executes the PT_CONTINUE ptrace call. addr 0 or 1 resumes
// where the process stopped.
func ptraceCont(pid int, addr uintptr, sig int) (int, syscall.Errno) {
	return ptrace(ptContinue, pid, continueAddr(addr), uintptr(sig))
}

func ptrace(request, pid int, addr uintptr, data uintptr) (int, syscall.Errno) {
	r1, _, errno := sys.Syscall6(sys.SYS_PTRACE, uintptr(request), uintptr(pid), addr, data, 0, 0)
	return int(r1), errno
}

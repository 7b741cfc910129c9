//go:build darwin || freebsd

package proc

import (
	"syscall"
)

const (
	waitMask      = 0x7f
	waitCore      = 0x80
	waitStopped   = 0x7f
	waitContinued = 0x13
)

// DecodeWaitStatus decodes a status word returned by wait4 on this host.
// unix.WaitStatus is not used here: on the BSDs it reports every SIGSTOP
// stop, including the attach stop, as continued. The kernel marks a
// continued process with the stop layout and signal number 0x13.
func DecodeWaitStatus(raw int) WaitStatus {
	var s WaitStatus
	sig := (raw >> 8) & 0xff
	switch {
	case raw&waitMask == waitStopped && sig == waitContinued:
		s.Continued = true
	case raw&waitMask == waitStopped:
		s.Stopped = true
		s.StopSignal = syscall.Signal(sig)
	case raw&waitMask == 0:
		s.Exited = true
		s.ExitStatus = sig
	default:
		s.Signaled = true
		s.Signal = syscall.Signal(raw & waitMask)
		s.CoreDump = raw&waitCore != 0
	}
	return s
}

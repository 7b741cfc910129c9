package proc

import (
	"golang.org/x/sys/unix"
)

// DecodeWaitStatus decodes a status word returned by wait4 on this host.
func DecodeWaitStatus(raw int) WaitStatus {
	w := unix.WaitStatus(raw)
	var s WaitStatus
	switch {
	case w.Continued():
		s.Continued = true
	case w.Stopped():
		s.Stopped = true
		s.StopSignal = w.StopSignal()
	case w.Exited():
		s.Exited = true
		s.ExitStatus = w.ExitStatus()
	case w.Signaled():
		s.Signaled = true
		s.Signal = w.Signal()
		s.CoreDump = w.CoreDump()
	}
	return s
}

package proc

import (
	"strconv"
	"syscall"
)

// WaitStatus is a decoded wait status word. Decoding follows the layout of
// the host that produced the word, so it must happen on the host that
// issued the wait.
type WaitStatus struct {
	Exited     bool
	ExitStatus int
	Signaled   bool
	Signal     syscall.Signal
	CoreDump   bool
	Stopped    bool
	StopSignal syscall.Signal
	Continued  bool
}

// NextState returns the trace state implied by a wait status.
func (s WaitStatus) NextState() TraceState {
	switch {
	case s.Exited, s.Signaled:
		return StateExited
	case s.Stopped:
		return StateStopped
	case s.Continued:
		return StateRunning
	}
	return StateUnattached
}

func (s WaitStatus) String() string {
	switch {
	case s.Exited:
		return "exited with status " + strconv.Itoa(s.ExitStatus)
	case s.Signaled:
		if s.CoreDump {
			return "killed by " + s.Signal.String() + " (core dumped)"
		}
		return "killed by " + s.Signal.String()
	case s.Stopped:
		return "stopped by " + s.StopSignal.String()
	case s.Continued:
		return "continued"
	}
	return "no status change"
}

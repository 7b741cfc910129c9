package rpc1

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/mem-editor/procctl/pkg/logflags"
	"github.com/mem-editor/procctl/pkg/proc"
	"github.com/mem-editor/procctl/service"
	"github.com/mem-editor/procctl/service/api"
)

// RPCServer exposes a proc.Controller.
type RPCServer struct {
	// config is all the information necessary to start the server.
	config *service.Config
	// ctl performs the requests.
	ctl proc.Controller
	log logflags.Logger
}

// NewServer creates a new RPCServer.
func NewServer(config *service.Config) *RPCServer {
	return &RPCServer{config: config, ctl: config.Controller, log: logflags.RPCLogger()}
}

type ListPidsIn struct {
}

type ListPidsOut struct {
	Processes []api.ProcessEntry
}

// ListPids returns every process visible to the server.
func (s *RPCServer) ListPids(arg ListPidsIn, out *ListPidsOut) error {
	entries, err := s.ctl.ListProcesses(context.Background())
	if err != nil {
		return err
	}
	out.Processes = api.ConvertProcessEntries(entries)
	return nil
}

type PtraceAttachIn struct {
	Pid int
}

type PtraceAttachOut struct {
	Process api.TracedProcess
}

// PtraceAttach starts tracing a process.
func (s *RPCServer) PtraceAttach(arg PtraceAttachIn, out *PtraceAttachOut) error {
	tp, err := s.ctl.Attach(arg.Pid)
	if err != nil {
		return err
	}
	out.Process = api.ConvertTracedProcess(tp)
	return nil
}

type PtraceDetachIn struct {
	Pid int
}

type PtraceDetachOut struct {
	Process api.TracedProcess
}

// PtraceDetach stops tracing a process.
func (s *RPCServer) PtraceDetach(arg PtraceDetachIn, out *PtraceDetachOut) error {
	tp, err := s.ctl.Detach(arg.Pid)
	if err != nil {
		return err
	}
	out.Process = api.ConvertTracedProcess(tp)
	return nil
}

type PtraceContinueIn struct {
	Pid int
	// StartAddr is the address execution resumes at. 0 or 1 resumes where
	// the process stopped. Ignored on Linux.
	StartAddr uint64
	// Data is the signal delivered to the process, 0 for none.
	Data int
}

type PtraceContinueOut struct {
	Process api.TracedProcess
}

// PtraceContinue resumes a stopped process.
func (s *RPCServer) PtraceContinue(arg PtraceContinueIn, out *PtraceContinueOut) error {
	tp, err := s.ctl.Continue(arg.Pid, uintptr(arg.StartAddr), arg.Data)
	if err != nil {
		return err
	}
	out.Process = api.ConvertTracedProcess(tp)
	return nil
}

type WaitPidIn struct {
	Pid     int
	Options int
	// Timeout bounds the wait. Zero waits until the process changes state.
	Timeout time.Duration
}

type WaitPidOut struct {
	api.WaitResult
}

// WaitPid blocks until a process changes state. It runs asynchronously so
// that other requests can be served while it waits. Failures of the wait
// itself are reported in the reply, never as an RPC error.
func (s *RPCServer) WaitPid(arg WaitPidIn, cb service.RPCCallback) {
	close(cb.SetupDoneChan())

	var (
		res proc.WaitResult
		err error
	)
	if arg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), arg.Timeout)
		res, err = s.ctl.WaitContext(ctx, arg.Pid, arg.Options)
		cancel()
	} else {
		res, err = s.ctl.Wait(arg.Pid, arg.Options)
	}

	out := &WaitPidOut{api.WaitResult{Pid: res.Pid, RawStatus: res.Status}}
	switch {
	case err != nil:
		var errno syscall.Errno
		if errors.As(err, &errno) {
			out.Errno = int(errno)
		}
		out.Error = err.Error()
		s.log.WithField("pid", arg.Pid).Debugf("wait failed: %v", err)
	case res.Pid > 0:
		out.Status = api.ConvertWaitStatus(res.Status)
	}
	cb.Return(out, nil)
}

type TaskForPidIn struct {
	Pid int
}

type TaskForPidOut struct {
	Task api.Task
}

// TaskForPid acquires a memory-access handle for a process.
func (s *RPCServer) TaskForPid(arg TaskForPidIn, out *TaskForPidOut) error {
	task, err := s.ctl.ResolveTask(arg.Pid)
	if err != nil {
		return err
	}
	out.Task = api.ConvertTask(task)
	return nil
}

type ReleaseTaskIn struct {
	Task api.Task
}

type ReleaseTaskOut struct {
}

// ReleaseTask releases a handle returned by TaskForPid.
func (s *RPCServer) ReleaseTask(arg ReleaseTaskIn, out *ReleaseTaskOut) error {
	return s.ctl.ReleaseTask(api.ConvertTaskBack(arg.Task))
}

type TracedIn struct {
}

type TracedOut struct {
	Processes []api.TracedProcess
}

// Traced returns the processes currently traced by the server.
func (s *RPCServer) Traced(arg TracedIn, out *TracedOut) error {
	out.Processes = api.ConvertTracedProcesses(s.ctl.Traced())
	return nil
}

type PrivilegesIn struct {
}

type PrivilegesOut struct {
	Privileges api.Privileges
}

// Privileges reports what the server is allowed to trace.
func (s *RPCServer) Privileges(arg PrivilegesIn, out *PrivilegesOut) error {
	out.Privileges = api.ConvertPrivileges(s.ctl.Privileges())
	return nil
}

//go:build linux || darwin || freebsd

package native

import (
	"context"
	"fmt"
	"runtime"
	"syscall"
	"time"

	sys "golang.org/x/sys/unix"

	"github.com/mem-editor/procctl/pkg/logflags"
	"github.com/mem-editor/procctl/pkg/proc"
)

// Backend implements proc.Controller on top of the host's ptrace family.
type Backend struct {
	config   Config
	registry *proc.Registry
	source   pidSource
	log      logflags.Logger

	ptraceChan     chan func()
	ptraceDoneChan chan struct{}
}

// Ensure the implementation satisfies the interface.
var _ proc.Controller = &Backend{}

// New returns an initialized Backend. Before returning, it will also
// launch a goroutine in order to handle ptrace(2) functions. For more
// information, see the documentation on handlePtraceFuncs.
func New(config Config) *Backend {
	config.setDefaults()
	b := &Backend{
		config:         config,
		registry:       proc.NewRegistry(),
		source:         gopsutilSource{},
		log:            logflags.PtraceLogger(),
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan struct{}),
	}
	go b.handlePtraceFuncs()
	return b
}

// Close stops the ptrace thread. Processes that are still attached stay
// attached until this process exits.
func (b *Backend) Close() error {
	close(b.ptraceChan)
	return nil
}

func (b *Backend) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread during
	// while invoking the ptrace(2) syscall. This is due to the fact that ptrace(2) expects
	// all commands after PTRACE_ATTACH to come from the same thread.
	runtime.LockOSThread()

	for fn := range b.ptraceChan {
		fn()
		b.ptraceDoneChan <- struct{}{}
	}
}

func (b *Backend) execPtraceFunc(fn func()) {
	b.ptraceChan <- fn
	<-b.ptraceDoneChan
}

// ListProcesses returns every visible process.
func (b *Backend) ListProcesses(ctx context.Context) ([]proc.ProcessEntry, error) {
	return listProcesses(ctx, b.source, b.config.UnknownName)
}

// Attach starts tracing pid. The process is stopped asynchronously by the
// kernel; call Wait to observe the stop.
func (b *Backend) Attach(pid int) (proc.TracedProcess, error) {
	b.pruneExited()
	if err := b.registry.Reserve(pid); err != nil {
		b.log.WithField("pid", pid).Debugf("attach refused: %v", err)
		return proc.TracedProcess{}, err
	}
	var (
		resp  int
		errno syscall.Errno
	)
	b.execPtraceFunc(func() { resp, errno = ptraceAttach(pid) })
	if err := proc.Classify(proc.OpAttach, pid, resp, errno, proc.ClassifyOptions{}); err != nil {
		b.registry.Release(pid)
		b.log.WithField("pid", pid).Debugf("attach failed: %v", err)
		return proc.TracedProcess{}, err
	}
	b.registry.Set(pid, proc.StateAttached)
	b.log.WithField("pid", pid).Debug("attached")
	return proc.TracedProcess{Pid: pid, State: proc.StateAttached}, nil
}

// Detach stops tracing pid and lets it run.
func (b *Backend) Detach(pid int) (proc.TracedProcess, error) {
	if detachNeedsStop && b.registry.State(pid) == proc.StateAttached {
		b.reapAttachStop(pid)
	}
	var (
		resp  int
		errno syscall.Errno
	)
	b.execPtraceFunc(func() { resp, errno = ptraceDetach(pid) })
	if err := proc.Classify(proc.OpDetach, pid, resp, errno, proc.ClassifyOptions{}); err != nil {
		b.log.WithField("pid", pid).Debugf("detach failed: %v", err)
		return proc.TracedProcess{}, err
	}
	b.registry.Release(pid)
	b.log.WithField("pid", pid).Debug("detached")
	return proc.TracedProcess{Pid: pid, State: proc.StateDetached}, nil
}

// reapAttachStop consumes the stop generated by attach so that the kernel
// accepts a detach request. It gives up after AttachStopTimeout.
func (b *Backend) reapAttachStop(pid int) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.AttachStopTimeout)
	defer cancel()
	if _, err := b.WaitContext(ctx, pid, 0); err != nil {
		b.log.WithField("pid", pid).Debugf("attach stop not observed: %v", err)
	}
}

// Continue resumes pid at addr delivering signal data.
func (b *Backend) Continue(pid int, addr uintptr, data int) (proc.TracedProcess, error) {
	var (
		resp  int
		errno syscall.Errno
	)
	b.execPtraceFunc(func() { resp, errno = ptraceCont(pid, addr, data) })
	if err := proc.Classify(proc.OpContinue, pid, resp, errno, proc.ClassifyOptions{AllowNotSupported: true}); err != nil {
		b.log.WithField("pid", pid).Debugf("continue failed: %v", err)
		return proc.TracedProcess{}, err
	}
	b.registry.Update(pid, proc.StateRunning)
	b.log.WithFields(logflags.Fields{"pid": pid, "addr": fmt.Sprintf("%#x", addr), "data": data}).Debug("continued")
	return proc.TracedProcess{Pid: pid, State: proc.StateRunning}, nil
}

// Wait blocks until pid changes state.
func (b *Backend) Wait(pid, options int) (proc.WaitResult, error) {
	wpid, status, err := wait4(pid, waitOptions(options))
	if err != nil {
		return proc.WaitResult{Pid: wpid, Status: status}, fmt.Errorf("wait4 %d: %w", pid, err)
	}
	b.recordStatus(wpid, status)
	return proc.WaitResult{Pid: wpid, Status: status}, nil
}

// WaitContext polls pid with WNOHANG until it changes state or ctx is done.
// The polling interval starts at WaitPollInterval and doubles up to
// maxWaitPollInterval.
func (b *Backend) WaitContext(ctx context.Context, pid, options int) (proc.WaitResult, error) {
	interval := b.config.WaitPollInterval
	for {
		wpid, status, err := wait4(pid, waitOptions(options|syscall.WNOHANG))
		if err != nil {
			return proc.WaitResult{Pid: wpid, Status: status}, fmt.Errorf("wait4 %d: %w", pid, err)
		}
		if wpid != 0 {
			b.recordStatus(wpid, status)
			return proc.WaitResult{Pid: wpid, Status: status}, nil
		}
		if options&syscall.WNOHANG != 0 {
			return proc.WaitResult{}, nil
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return proc.WaitResult{}, ctx.Err()
		case <-t.C:
		}
		if interval < maxWaitPollInterval {
			interval *= 2
			if interval > maxWaitPollInterval {
				interval = maxWaitPollInterval
			}
		}
	}
}

func (b *Backend) recordStatus(wpid, status int) {
	if wpid <= 0 {
		return
	}
	ws := proc.DecodeWaitStatus(status)
	if next := ws.NextState(); next != proc.StateUnattached {
		b.registry.Update(wpid, next)
	}
	b.log.WithField("pid", wpid).Debugf("wait: %v", ws)
}

// ResolveTask acquires a memory-access handle for pid.
func (b *Backend) ResolveTask(pid int) (proc.Task, error) {
	task, err := resolveTask(pid)
	if err != nil {
		b.log.WithField("pid", pid).Debugf("task resolution failed: %v", err)
		return proc.Task{}, err
	}
	return task, nil
}

// ReleaseTask releases a handle returned by ResolveTask.
func (b *Backend) ReleaseTask(task proc.Task) error {
	return releaseTask(task)
}

// Traced returns the pids currently under trace control.
func (b *Backend) Traced() []proc.TracedProcess {
	b.pruneExited()
	return b.registry.List()
}

// pruneExited drops registry entries whose process no longer exists, for
// example because it died and was reaped without going through Wait.
func (b *Backend) pruneExited() {
	for _, pid := range b.registry.Prune(processExists) {
		b.log.WithField("pid", pid).Debug("traced process is gone")
	}
}

func processExists(pid int) bool {
	return sys.Kill(pid, 0) != sys.ESRCH
}

// Privileges reports what the current process may trace.
func (b *Backend) Privileges() proc.Privileges {
	return privileges()
}

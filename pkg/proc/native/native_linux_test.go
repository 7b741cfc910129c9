package native_test

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sys "golang.org/x/sys/unix"

	"github.com/mem-editor/procctl/pkg/proc"
	"github.com/mem-editor/procctl/pkg/proc/native"
)

func startSleep(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "60")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Process.Release()
	})
	return cmd
}

// unusedPid returns a pid with no live process, starting at 4242.
func unusedPid(t *testing.T) int {
	t.Helper()
	for pid := 4242; pid < 4242+10000; pid++ {
		if err := sys.Kill(pid, 0); errors.Is(err, sys.ESRCH) {
			return pid
		}
	}
	t.Fatal("could not find an unused pid")
	return 0
}

func attachOrSkip(t *testing.T, b *native.Backend, pid int) {
	t.Helper()
	_, err := b.Attach(pid)
	if errors.Is(err, proc.ErrPermissionDenied) {
		t.Skipf("tracing not permitted here: %v", err)
	}
	require.NoError(t, err)
}

func TestAttachNonexistent(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()

	pid := unusedPid(t)
	_, err := b.Attach(pid)
	require.Error(t, err)
	assert.ErrorIs(t, err, proc.ErrNoSuchProcess)
	assert.Contains(t, err.Error(), "NoSuchProcess")
	assert.Empty(t, b.Traced())
}

func TestAttachDetach(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)
	pid := cmd.Process.Pid

	attachOrSkip(t, b, pid)
	assert.Equal(t, []proc.TracedProcess{{Pid: pid, State: proc.StateAttached}}, b.Traced())

	_, err := b.Attach(pid)
	assert.ErrorIs(t, err, proc.ErrAlreadyAttached)
	assert.ErrorIs(t, err, proc.ErrResourceBusy)

	tp, err := b.Detach(pid)
	require.NoError(t, err)
	assert.Equal(t, proc.StateDetached, tp.State)
	assert.Empty(t, b.Traced())
}

func TestWaitContinue(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)
	pid := cmd.Process.Pid

	attachOrSkip(t, b, pid)

	res, err := b.Wait(pid, 0)
	require.NoError(t, err)
	assert.Equal(t, pid, res.Pid)
	ws := proc.DecodeWaitStatus(res.Status)
	require.True(t, ws.Stopped, "status %v", ws)
	assert.Equal(t, syscall.SIGSTOP, ws.StopSignal)
	assert.Equal(t, proc.StateStopped, b.Traced()[0].State)

	tp, err := b.Continue(pid, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, proc.StateRunning, tp.State)

	require.NoError(t, cmd.Process.Signal(syscall.SIGKILL))
	res, err = b.Wait(pid, 0)
	require.NoError(t, err)
	ws = proc.DecodeWaitStatus(res.Status)
	assert.True(t, ws.Signaled, "status %v", ws)
	assert.Equal(t, syscall.SIGKILL, ws.Signal)
	assert.Empty(t, b.Traced())
}

func TestContinueRunning(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)
	pid := cmd.Process.Pid

	attachOrSkip(t, b, pid)
	_, err := b.Wait(pid, 0)
	require.NoError(t, err)
	_, err = b.Continue(pid, 1, 0)
	require.NoError(t, err)

	// The kernel only accepts requests for a stopped tracee.
	_, err = b.Continue(pid, 1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, proc.ErrNoSuchProcess)
	assert.Equal(t, []proc.TracedProcess{{Pid: pid, State: proc.StateRunning}}, b.Traced())
}

func TestWaitStoppedAndContinued(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)
	pid := cmd.Process.Pid

	require.NoError(t, cmd.Process.Signal(syscall.SIGSTOP))
	res, err := b.Wait(pid, syscall.WUNTRACED)
	require.NoError(t, err)
	ws := proc.DecodeWaitStatus(res.Status)
	require.True(t, ws.Stopped, "status %v", ws)
	assert.Equal(t, syscall.SIGSTOP, ws.StopSignal)

	require.NoError(t, cmd.Process.Signal(syscall.SIGCONT))
	res, err = b.Wait(pid, sys.WCONTINUED)
	require.NoError(t, err)
	assert.Equal(t, pid, res.Pid)
	ws = proc.DecodeWaitStatus(res.Status)
	assert.True(t, ws.Continued, "status %v", ws)
	assert.Empty(t, b.Traced(), "untraced children are not registered")
}

func TestTracedForgetsReapedProcess(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)
	pid := cmd.Process.Pid

	attachOrSkip(t, b, pid)
	_, err := b.Wait(pid, 0)
	require.NoError(t, err)

	// Reap the process behind the backend's back.
	require.NoError(t, cmd.Process.Signal(syscall.SIGKILL))
	var ws sys.WaitStatus
	_, err = sys.Wait4(pid, &ws, sys.WALL, nil)
	require.NoError(t, err)

	assert.Empty(t, b.Traced())
	_, err = b.Attach(pid)
	require.Error(t, err)
	assert.NotErrorIs(t, err, proc.ErrAlreadyAttached)
}

func TestContinueNotTraced(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)

	_, err := b.Continue(cmd.Process.Pid, 1, 0)
	require.Error(t, err)
	var perr *proc.PtraceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, proc.OpContinue, perr.Op)
	assert.Equal(t, -1, perr.Response)
}

func TestWaitContextTimeout(t *testing.T) {
	b := native.New(native.Config{WaitPollInterval: time.Millisecond})
	defer b.Close()
	cmd := startSleep(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := b.WaitContext(ctx, cmd.Process.Pid, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitContextNoHang(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()
	cmd := startSleep(t)

	res, err := b.WaitContext(context.Background(), cmd.Process.Pid, syscall.WNOHANG)
	require.NoError(t, err)
	assert.Equal(t, proc.WaitResult{}, res)
}

func TestWaitNotChild(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()

	_, err := b.Wait(unusedPid(t), 0)
	assert.ErrorIs(t, err, syscall.ECHILD)
}

func TestResolveTask(t *testing.T) {
	b := native.New(native.Config{})
	defer b.Close()

	pid := unusedPid(t)
	_, err := b.ResolveTask(pid)
	var terr *proc.TaskError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, pid, terr.Pid)
	assert.Equal(t, int(syscall.ENOENT), terr.Code)

	cmd := startSleep(t)
	task, err := b.ResolveTask(cmd.Process.Pid)
	if err != nil {
		t.Skipf("cannot open child memory here: %v", err)
	}
	assert.Equal(t, cmd.Process.Pid, task.Pid)
	assert.NoError(t, b.ReleaseTask(task))
}

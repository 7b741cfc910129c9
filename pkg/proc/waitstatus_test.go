//go:build linux || darwin || freebsd

package proc_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestDecodeWaitStatus(t *testing.T) {
	exited := proc.DecodeWaitStatus(3 << 8)
	assert.True(t, exited.Exited)
	assert.Equal(t, 3, exited.ExitStatus)
	assert.Equal(t, proc.StateExited, exited.NextState())
	assert.Equal(t, "exited with status 3", exited.String())

	killed := proc.DecodeWaitStatus(int(syscall.SIGKILL))
	assert.True(t, killed.Signaled)
	assert.Equal(t, syscall.SIGKILL, killed.Signal)
	assert.False(t, killed.CoreDump)
	assert.Equal(t, proc.StateExited, killed.NextState())

	dumped := proc.DecodeWaitStatus(int(syscall.SIGSEGV) | 0x80)
	assert.True(t, dumped.Signaled)
	assert.True(t, dumped.CoreDump)

	stopped := proc.DecodeWaitStatus(int(syscall.SIGSTOP)<<8 | 0x7f)
	assert.True(t, stopped.Stopped)
	assert.Equal(t, syscall.SIGSTOP, stopped.StopSignal)
	assert.Equal(t, proc.StateStopped, stopped.NextState())

	trapped := proc.DecodeWaitStatus(int(syscall.SIGTRAP)<<8 | 0x7f)
	assert.True(t, trapped.Stopped)
	assert.Equal(t, syscall.SIGTRAP, trapped.StopSignal)
}

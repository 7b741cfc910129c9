//go:build darwin || freebsd

package proc_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestDecodeWaitStatusContinuedBSD(t *testing.T) {
	s := proc.DecodeWaitStatus(0x137f)
	assert.True(t, s.Continued)
	assert.False(t, s.Stopped)
	assert.Equal(t, proc.StateRunning, s.NextState())
}

func TestDecodeWaitStatusAttachStopBSD(t *testing.T) {
	s := proc.DecodeWaitStatus(int(syscall.SIGSTOP)<<8 | 0x7f)
	assert.True(t, s.Stopped)
	assert.False(t, s.Continued)
	assert.Equal(t, syscall.SIGSTOP, s.StopSignal)
	assert.Equal(t, proc.StateStopped, s.NextState())
}

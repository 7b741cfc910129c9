package proc_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestDecodeWaitStatusContinuedLinux(t *testing.T) {
	s := proc.DecodeWaitStatus(0xffff)
	assert.True(t, s.Continued)
	assert.False(t, s.Stopped)
	assert.Equal(t, proc.StateRunning, s.NextState())
	assert.Equal(t, "continued", s.String())
}

func TestDecodeWaitStatusStopSignal19Linux(t *testing.T) {
	// Signal 19 is SIGSTOP here and the continued marker on the BSDs.
	s := proc.DecodeWaitStatus(0x137f)
	assert.True(t, s.Stopped)
	assert.False(t, s.Continued)
	assert.Equal(t, syscall.SIGSTOP, s.StopSignal)
}

package api

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitResultString(t *testing.T) {
	r := &WaitResult{Pid: 12, RawStatus: 0x117f, Status: WaitStatus{Stopped: true, StopSignal: 17, Description: "stopped by suspended (signal)"}}
	assert.Equal(t, "pid 12 stopped by suspended (signal) (status 0x117f)", r.String())

	r = &WaitResult{Pid: 12, RawStatus: 1 << 8, Status: WaitStatus{Exited: true, ExitStatus: 1, Description: "exited with status 1"}}
	assert.Equal(t, "pid 12 exited with status 1 (status 0x100)", r.String())

	r = &WaitResult{Pid: 12, RawStatus: 0x137f}
	assert.Equal(t, "pid 12 (status 0x137f)", r.String())

	r = &WaitResult{}
	assert.Equal(t, "no status change", r.String())

	r = &WaitResult{Errno: int(syscall.ECHILD), Error: "wait4 12: no child processes"}
	assert.Equal(t, "wait failed: wait4 12: no child processes", r.String())
}

func TestPrintProcesses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintProcesses(&buf, []ProcessEntry{{Pid: 1, Name: "init"}, {Pid: 4242, Name: "(Unknown name)"}}))
	assert.Equal(t, "PID   NAME\n1     init\n4242  (Unknown name)\n", buf.String())
}

func TestPrintPrivileges(t *testing.T) {
	var buf bytes.Buffer
	PrintPrivileges(&buf, Privileges{Euid: 1000, PtraceScope: -1, Notes: []string{"a", "b"}})
	assert.Equal(t, "euid:           1000\nroot:           false\nCAP_SYS_PTRACE: false\nnotes:\n\ta\n\tb\n", buf.String())
}

package proc_test

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response int
		errno    syscall.Errno
		opts     proc.ClassifyOptions
		kind     proc.ErrorKind
		sentinel error
	}{
		{"no errno", -1, 0, proc.ClassifyOptions{}, proc.Unspecified, proc.ErrUnspecified},
		{"esrch", -1, syscall.ESRCH, proc.ClassifyOptions{}, proc.NoSuchProcess, proc.ErrNoSuchProcess},
		{"einval", -1, syscall.EINVAL, proc.ClassifyOptions{}, proc.InvalidArgument, proc.ErrInvalidArgument},
		{"ebusy", -1, syscall.EBUSY, proc.ClassifyOptions{}, proc.ResourceBusy, proc.ErrResourceBusy},
		{"eperm", -1, syscall.EPERM, proc.ClassifyOptions{}, proc.PermissionDenied, proc.ErrPermissionDenied},
		{"enotsup on attach", -1, syscall.ENOTSUP, proc.ClassifyOptions{}, proc.Other, proc.ErrOther},
		{"enotsup on continue", -1, syscall.ENOTSUP, proc.ClassifyOptions{AllowNotSupported: true}, proc.NotSupported, proc.ErrNotSupported},
		{"other errno", -1, syscall.EIO, proc.ClassifyOptions{}, proc.Other, proc.ErrOther},
		{"unexpected with errno", 3, syscall.EIO, proc.ClassifyOptions{}, proc.UnexpectedResponse, proc.ErrUnexpectedResponse},
		{"unexpected without errno", 3, 0, proc.ClassifyOptions{}, proc.UnexpectedResponse, proc.ErrUnexpectedResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := proc.Classify(proc.OpAttach, 4242, tc.response, tc.errno, tc.opts)
			require.Error(t, err)
			var perr *proc.PtraceError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.kind, perr.Kind)
			assert.Equal(t, 4242, perr.Pid)
			assert.Equal(t, tc.response, perr.Response)
			assert.Equal(t, int(tc.errno), perr.Code())
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Contains(t, err.Error(), tc.kind.String())
		})
	}
}

func TestClassifySuccessIgnoresErrno(t *testing.T) {
	assert.NoError(t, proc.Classify(proc.OpDetach, 1, 0, 0, proc.ClassifyOptions{}))
	assert.NoError(t, proc.Classify(proc.OpDetach, 1, 0, syscall.EPERM, proc.ClassifyOptions{}))
}

func TestPtraceErrorMessages(t *testing.T) {
	err := proc.Classify(proc.OpAttach, 4242, -1, syscall.ESRCH, proc.ClassifyOptions{})
	assert.Equal(t, "PTRACE_ATTACH of 4242: response: -1, errno: ESRCH (NoSuchProcess)", err.Error())

	err = proc.Classify(proc.OpContinue, 7, -1, 0, proc.ClassifyOptions{})
	assert.Equal(t, "PTRACE_CONTINUE of 7: ptrace response: -1 (Unspecified)", err.Error())

	err = proc.Classify(proc.OpDetach, 7, 5, 0, proc.ClassifyOptions{})
	assert.Equal(t, "PTRACE_DETACH of 7: unexpected response code: 5 (UnexpectedResponse)", err.Error())

	err = proc.Classify(proc.OpDetach, 7, 5, syscall.EIO, proc.ClassifyOptions{})
	assert.Equal(t, fmt.Sprintf("PTRACE_DETACH of 7: unexpected response code: 5, errno: %d (UnexpectedResponse)", int(syscall.EIO)), err.Error())
}

func TestPtraceErrorUnwrapsErrno(t *testing.T) {
	err := proc.Classify(proc.OpAttach, 1, -1, syscall.EPERM, proc.ClassifyOptions{})
	assert.ErrorIs(t, err, syscall.EPERM)

	err = proc.Classify(proc.OpAttach, 1, -1, 0, proc.ClassifyOptions{})
	assert.Nil(t, errors.Unwrap(err))
}

func TestWrappedPtraceErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("rpc: %w", proc.Classify(proc.OpAttach, 1, -1, syscall.EBUSY, proc.ClassifyOptions{}))
	assert.ErrorIs(t, err, proc.ErrResourceBusy)
	assert.NotErrorIs(t, err, proc.ErrNoSuchProcess)
}

func TestEnumerationAndTaskErrors(t *testing.T) {
	cause := errors.New("sysctl failed")
	err := &proc.EnumerationError{Err: cause}
	assert.Equal(t, "all_pids failed: sysctl failed", err.Error())
	assert.ErrorIs(t, err, cause)

	terr := &proc.TaskError{Call: "task_for_pid", Pid: 1, Code: 5}
	assert.Equal(t, "task_for_pid failed: 5", terr.Error())
}

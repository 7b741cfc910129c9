//go:build linux || darwin || freebsd

package native

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-editor/procctl/pkg/proc"
)

type fakeSource struct {
	pids   []int32
	names  map[int32]string
	pidErr error
}

func (s *fakeSource) Pids(ctx context.Context) ([]int32, error) {
	return s.pids, s.pidErr
}

func (s *fakeSource) Name(ctx context.Context, pid int32) (string, error) {
	name, ok := s.names[pid]
	if !ok {
		return "", errors.New("no such process")
	}
	return name, nil
}

func TestListProcessesPlaceholder(t *testing.T) {
	src := &fakeSource{
		pids:  []int32{1, 300, 42, 7},
		names: map[int32]string{1: "launchd", 42: "", 7: "sleep"},
	}
	entries, err := listProcesses(context.Background(), src, proc.UnknownProcessName)
	require.NoError(t, err)
	assert.Equal(t, []proc.ProcessEntry{
		{Pid: 1, Name: "launchd"},
		{Pid: 300, Name: proc.UnknownProcessName},
		{Pid: 42, Name: proc.UnknownProcessName},
		{Pid: 7, Name: "sleep"},
	}, entries)
}

func TestListProcessesCustomPlaceholder(t *testing.T) {
	src := &fakeSource{pids: []int32{9}}
	entries, err := listProcesses(context.Background(), src, "?")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "?", entries[0].Name)
}

func TestListProcessesPidFailure(t *testing.T) {
	src := &fakeSource{pidErr: errors.New("sysctl: operation not permitted")}
	entries, err := listProcesses(context.Background(), src, proc.UnknownProcessName)
	assert.Nil(t, entries)
	var enumErr *proc.EnumerationError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "all_pids failed: sysctl: operation not permitted", err.Error())
}

func TestListProcessesEmpty(t *testing.T) {
	entries, err := listProcesses(context.Background(), &fakeSource{}, proc.UnknownProcessName)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListProcessesLive(t *testing.T) {
	b := New(Config{})
	defer b.Close()
	entries, err := b.ListProcesses(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.NotEmpty(t, e.Name, "pid %d", e.Pid)
	}
}

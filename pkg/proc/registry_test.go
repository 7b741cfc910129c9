package proc_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestRegistrySingleOwner(t *testing.T) {
	r := proc.NewRegistry()
	require.NoError(t, r.Reserve(10))

	err := r.Reserve(10)
	require.Error(t, err)
	assert.ErrorIs(t, err, proc.ErrAlreadyAttached)
	assert.ErrorIs(t, err, proc.ErrResourceBusy)

	r.Release(10)
	assert.NoError(t, r.Reserve(10))
}

func TestRegistryStates(t *testing.T) {
	r := proc.NewRegistry()
	require.NoError(t, r.Reserve(3))
	assert.Empty(t, r.List(), "pending reservations are not listed")

	r.Set(3, proc.StateAttached)
	assert.Equal(t, proc.StateAttached, r.State(3))
	assert.True(t, r.Update(3, proc.StateStopped))
	assert.Equal(t, []proc.TracedProcess{{Pid: 3, State: proc.StateStopped}}, r.List())

	assert.True(t, r.Update(3, proc.StateExited))
	assert.Equal(t, proc.StateUnattached, r.State(3))
	assert.False(t, r.Update(3, proc.StateStopped), "exited pids are not resurrected")
	assert.Empty(t, r.List())
}

func TestRegistryPrune(t *testing.T) {
	r := proc.NewRegistry()
	r.Set(5, proc.StateRunning)
	r.Set(6, proc.StateStopped)
	r.Set(7, proc.StateAttached)
	require.NoError(t, r.Reserve(8))

	dead := map[int]bool{5: true, 7: true, 8: true}
	gone := r.Prune(func(pid int) bool { return !dead[pid] })
	assert.Equal(t, []int{5, 7}, gone)
	assert.Equal(t, []proc.TracedProcess{{Pid: 6, State: proc.StateStopped}}, r.List())

	assert.NoError(t, r.Reserve(5), "a pruned pid can be attached again")
	assert.ErrorIs(t, r.Reserve(8), proc.ErrAlreadyAttached, "reservations survive pruning")
}

func TestRegistryListSorted(t *testing.T) {
	r := proc.NewRegistry()
	for _, pid := range []int{30, 10, 20} {
		require.NoError(t, r.Reserve(pid))
		r.Set(pid, proc.StateAttached)
	}
	l := r.List()
	require.Len(t, l, 3)
	assert.Equal(t, 10, l[0].Pid)
	assert.Equal(t, 20, l[1].Pid)
	assert.Equal(t, 30, l[2].Pid)
}

func TestRegistryConcurrentReserve(t *testing.T) {
	r := proc.NewRegistry()
	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Reserve(99) == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

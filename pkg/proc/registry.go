package proc

import (
	"sort"
	"sync"
)

// Registry tracks which pids are under trace control. A pid has at most
// one owner: Reserve fails while an earlier reservation is outstanding.
type Registry struct {
	mu    sync.Mutex
	procs map[int]TraceState
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[int]TraceState)}
}

// Reserve claims pid for an attach in progress. It returns a PtraceError of
// kind AlreadyAttached if pid is already claimed.
func (r *Registry) Reserve(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.procs[pid]; ok {
		return &PtraceError{Op: OpAttach, Pid: pid, Kind: AlreadyAttached}
	}
	r.procs[pid] = StateUnattached
	return nil
}

// Set records the state of pid. Terminal states remove the entry.
func (r *Registry) Set(pid int, state TraceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(pid, state)
}

func (r *Registry) set(pid int, state TraceState) {
	switch state {
	case StateUnattached, StateExited, StateDetached:
		delete(r.procs, pid)
	default:
		r.procs[pid] = state
	}
}

// Update records state only if pid is registered. It reports whether the
// entry existed.
func (r *Registry) Update(pid int, state TraceState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[pid]
	if ok {
		r.set(pid, state)
	}
	return ok
}

// Release drops pid from the registry.
func (r *Registry) Release(pid int) {
	r.Set(pid, StateDetached)
}

// State returns the state of pid, StateUnattached if it is not registered.
func (r *Registry) State(pid int) TraceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.procs[pid]
}

// Prune forgets traced pids for which alive reports false and returns
// them. Reservations for attaches in flight are kept.
func (r *Registry) Prune(alive func(pid int) bool) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var gone []int
	for pid, state := range r.procs {
		if state == StateUnattached || alive(pid) {
			continue
		}
		delete(r.procs, pid)
		gone = append(gone, pid)
	}
	sort.Ints(gone)
	return gone
}

// List returns the registered processes sorted by pid. Reservations that
// have not completed an attach are omitted.
func (r *Registry) List() []TracedProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	r2 := make([]TracedProcess, 0, len(r.procs))
	for pid, state := range r.procs {
		if state == StateUnattached {
			continue
		}
		r2 = append(r2, TracedProcess{Pid: pid, State: state})
	}
	sort.Slice(r2, func(i, j int) bool { return r2[i].Pid < r2[j].Pid })
	return r2
}

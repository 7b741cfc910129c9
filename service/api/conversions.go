package api

import (
	"github.com/mem-editor/procctl/pkg/proc"
)

// ConvertProcessEntries converts a process listing.
func ConvertProcessEntries(entries []proc.ProcessEntry) []ProcessEntry {
	r := make([]ProcessEntry, len(entries))
	for i := range entries {
		r[i] = ProcessEntry{Pid: entries[i].Pid, Name: entries[i].Name}
	}
	return r
}

// ConvertTracedProcess converts a proc.TracedProcess.
func ConvertTracedProcess(tp proc.TracedProcess) TracedProcess {
	return TracedProcess{Pid: tp.Pid, State: tp.State.String()}
}

// ConvertTracedProcesses converts a list of traced processes.
func ConvertTracedProcesses(tps []proc.TracedProcess) []TracedProcess {
	r := make([]TracedProcess, len(tps))
	for i := range tps {
		r[i] = ConvertTracedProcess(tps[i])
	}
	return r
}

// ConvertTask converts a proc.Task.
func ConvertTask(t proc.Task) Task {
	return Task{Pid: t.Pid, Port: t.Port}
}

// ConvertTaskBack converts a Task received from a client.
func ConvertTaskBack(t Task) proc.Task {
	return proc.Task{Pid: t.Pid, Port: t.Port}
}

// ConvertWaitStatus decodes a raw wait status reported by this host.
func ConvertWaitStatus(raw int) WaitStatus {
	ws := proc.DecodeWaitStatus(raw)
	return WaitStatus{
		Exited:     ws.Exited,
		ExitStatus: ws.ExitStatus,
		Signaled:   ws.Signaled,
		Signal:     int(ws.Signal),
		CoreDump:   ws.CoreDump,
		Stopped:    ws.Stopped,
		StopSignal: int(ws.StopSignal),
		Continued:  ws.Continued,

		Description: ws.String(),
	}
}

// ConvertPrivileges converts a proc.Privileges.
func ConvertPrivileges(p proc.Privileges) Privileges {
	return Privileges{
		Euid:         p.Euid,
		Root:         p.Root,
		CapSysPtrace: p.CapSysPtrace,
		PtraceScope:  p.PtraceScope,
		Notes:        p.Notes,
	}
}

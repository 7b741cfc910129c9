package api

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func (tp TracedProcess) String() string {
	return fmt.Sprintf("pid %d %s", tp.Pid, tp.State)
}

func (r *WaitResult) String() string {
	switch {
	case r.Error != "":
		return "wait failed: " + r.Error
	case r.Pid == 0:
		return "no status change"
	}
	if r.Status.Description == "" {
		return fmt.Sprintf("pid %d (status %#x)", r.Pid, r.RawStatus)
	}
	return fmt.Sprintf("pid %d %s (status %#x)", r.Pid, r.Status.Description, r.RawStatus)
}

// PrintProcesses writes a process listing as an aligned table.
func PrintProcesses(out io.Writer, entries []ProcessEntry) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\n", e.Pid, e.Name)
	}
	return w.Flush()
}

// PrintPrivileges writes a human readable description of p.
func PrintPrivileges(out io.Writer, p Privileges) {
	fmt.Fprintf(out, "euid:           %d\n", p.Euid)
	fmt.Fprintf(out, "root:           %v\n", p.Root)
	fmt.Fprintf(out, "CAP_SYS_PTRACE: %v\n", p.CapSysPtrace)
	if p.PtraceScope >= 0 {
		fmt.Fprintf(out, "ptrace_scope:   %d\n", p.PtraceScope)
	}
	if len(p.Notes) > 0 {
		fmt.Fprintf(out, "notes:\n\t%s\n", strings.Join(p.Notes, "\n\t"))
	}
}

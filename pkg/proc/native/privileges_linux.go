package native

import (
	"os"
	"strconv"
	"strings"

	"github.com/syndtr/gocapability/capability"

	"github.com/mem-editor/procctl/pkg/logflags"
	"github.com/mem-editor/procctl/pkg/proc"
)

const ptraceScopeFile = "/proc/sys/kernel/yama/ptrace_scope"

func privileges() proc.Privileges {
	p := proc.Privileges{
		Euid:        os.Geteuid(),
		PtraceScope: readPtraceScope(ptraceScopeFile),
	}
	p.Root = p.Euid == 0
	if c, err := capability.NewPid2(0); err == nil {
		if err := c.Load(); err == nil {
			p.CapSysPtrace = c.Get(capability.EFFECTIVE, capability.CAP_SYS_PTRACE)
		} else {
			logflags.PtraceLogger().Debugf("loading capabilities: %v", err)
		}
	}
	p.Notes = ptraceScopeNotes(p)
	return p
}

// readPtraceScope returns the Yama ptrace_scope setting, or -1 when Yama is
// not present.
func readPtraceScope(path string) int {
	buf, err := os.ReadFile(path)
	if err != nil {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(buf)))
	if err != nil {
		return -1
	}
	return n
}

func ptraceScopeNotes(p proc.Privileges) []string {
	var notes []string
	switch p.PtraceScope {
	case 1:
		if !p.CapSysPtrace {
			notes = append(notes, "ptrace_scope is 1: only descendants of this process can be attached without CAP_SYS_PTRACE")
		}
	case 2:
		if !p.CapSysPtrace {
			notes = append(notes, "ptrace_scope is 2: attaching requires CAP_SYS_PTRACE")
		}
	case 3:
		notes = append(notes, "ptrace_scope is 3: attaching is disabled until reboot")
	}
	return notes
}

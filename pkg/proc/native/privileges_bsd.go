//go:build darwin || freebsd

package native

import (
	"os"

	"github.com/mem-editor/procctl/pkg/proc"
)

func privileges() proc.Privileges {
	p := proc.Privileges{Euid: os.Geteuid(), PtraceScope: -1}
	p.Root = p.Euid == 0
	if !p.Root {
		p.Notes = append(p.Notes, "attaching and task_for_pid require root or the debugger entitlement")
	}
	return p
}

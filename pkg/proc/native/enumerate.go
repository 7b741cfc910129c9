//go:build linux || darwin || freebsd

package native

import (
	"context"

	gopsProcess "github.com/shirou/gopsutil/v4/process"

	"github.com/mem-editor/procctl/pkg/logflags"
	"github.com/mem-editor/procctl/pkg/proc"
)

// pidSource is the OS primitive behind ListProcesses.
type pidSource interface {
	Pids(ctx context.Context) ([]int32, error)
	Name(ctx context.Context, pid int32) (string, error)
}

type gopsutilSource struct{}

func (gopsutilSource) Pids(ctx context.Context) ([]int32, error) {
	return gopsProcess.PidsWithContext(ctx)
}

func (gopsutilSource) Name(ctx context.Context, pid int32) (string, error) {
	p, err := gopsProcess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}

// listProcesses returns one entry per pid reported by src, in the order src
// reports them. A pid whose name cannot be resolved is listed as unknown.
func listProcesses(ctx context.Context, src pidSource, unknown string) ([]proc.ProcessEntry, error) {
	log := logflags.EnumLogger()
	pids, err := src.Pids(ctx)
	if err != nil {
		log.Errorf("listing pids: %v", err)
		return nil, &proc.EnumerationError{Err: err}
	}
	entries := make([]proc.ProcessEntry, 0, len(pids))
	for _, pid := range pids {
		name, err := src.Name(ctx, pid)
		if err != nil || name == "" {
			if err != nil {
				log.WithField("pid", pid).Debugf("name lookup: %v", err)
			}
			name = unknown
		}
		entries = append(entries, proc.ProcessEntry{Pid: int(pid), Name: name})
	}
	log.Debugf("listed %d processes", len(entries))
	return entries, nil
}

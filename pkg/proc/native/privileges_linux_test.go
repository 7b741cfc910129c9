package native

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mem-editor/procctl/pkg/proc"
)

func TestReadPtraceScope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ptrace_scope")
	assert.Equal(t, -1, readPtraceScope(path))

	assert.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))
	assert.Equal(t, 1, readPtraceScope(path))

	assert.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	assert.Equal(t, -1, readPtraceScope(path))
}

func TestPtraceScopeNotes(t *testing.T) {
	assert.Empty(t, ptraceScopeNotes(proc.Privileges{PtraceScope: 0}))
	assert.Empty(t, ptraceScopeNotes(proc.Privileges{PtraceScope: -1}))
	assert.Len(t, ptraceScopeNotes(proc.Privileges{PtraceScope: 1}), 1)
	assert.Empty(t, ptraceScopeNotes(proc.Privileges{PtraceScope: 1, CapSysPtrace: true}))
	assert.Len(t, ptraceScopeNotes(proc.Privileges{PtraceScope: 2}), 1)
	assert.Len(t, ptraceScopeNotes(proc.Privileges{PtraceScope: 3, CapSysPtrace: true}), 1)
}

func TestPrivileges(t *testing.T) {
	p := privileges()
	assert.Equal(t, os.Geteuid(), p.Euid)
	assert.Equal(t, p.Euid == 0, p.Root)
}

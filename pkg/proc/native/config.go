package native

import (
	"time"

	"github.com/mem-editor/procctl/pkg/proc"
)

const (
	defaultWaitPollInterval  = 10 * time.Millisecond
	maxWaitPollInterval      = 200 * time.Millisecond
	defaultAttachStopTimeout = 2 * time.Second
)

// Config tunes a Backend. The zero value is usable.
type Config struct {
	// UnknownName is reported for processes whose name cannot be resolved.
	UnknownName string
	// WaitPollInterval is the first polling interval of WaitContext.
	WaitPollInterval time.Duration
	// AttachStopTimeout bounds how long Detach waits for a pending attach
	// stop on platforms that refuse to detach a running tracee.
	AttachStopTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.UnknownName == "" {
		c.UnknownName = proc.UnknownProcessName
	}
	if c.WaitPollInterval <= 0 {
		c.WaitPollInterval = defaultWaitPollInterval
	}
	if c.WaitPollInterval > maxWaitPollInterval {
		c.WaitPollInterval = maxWaitPollInterval
	}
	if c.AttachStopTimeout <= 0 {
		c.AttachStopTimeout = defaultAttachStopTimeout
	}
}

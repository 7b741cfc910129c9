package api

// ProcessEntry is one element of a process listing.
type ProcessEntry struct {
	Pid  int    `json:"pid"`
	Name string `json:"name"`
}

// TracedProcess is a process under trace control of the server.
type TracedProcess struct {
	Pid   int    `json:"pid"`
	State string `json:"state"`
}

// Task is a memory-access handle issued by the server's kernel. It is only
// meaningful inside the server process.
type Task struct {
	Pid  int    `json:"pid"`
	Port uint32 `json:"port"`
}

// WaitResult is the outcome of a wait request. Errno and Error are set when
// the wait itself failed. Status is decoded by the server, RawStatus is only
// meaningful to a client running on the same operating system.
type WaitResult struct {
	Pid       int        `json:"pid"`
	RawStatus int        `json:"rawStatus"`
	Status    WaitStatus `json:"status"`
	Errno     int        `json:"errno,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// WaitStatus is a decoded wait status.
type WaitStatus struct {
	Exited     bool `json:"exited,omitempty"`
	ExitStatus int  `json:"exitStatus,omitempty"`
	Signaled   bool `json:"signaled,omitempty"`
	Signal     int  `json:"signal,omitempty"`
	CoreDump   bool `json:"coreDump,omitempty"`
	Stopped    bool `json:"stopped,omitempty"`
	StopSignal int  `json:"stopSignal,omitempty"`
	Continued  bool `json:"continued,omitempty"`

	// Description names the signals as the server's operating system does.
	Description string `json:"description,omitempty"`
}

// Privileges describes what the server is allowed to trace.
type Privileges struct {
	Euid         int      `json:"euid"`
	Root         bool     `json:"root"`
	CapSysPtrace bool     `json:"capSysPtrace"`
	PtraceScope  int      `json:"ptraceScope"`
	Notes        []string `json:"notes,omitempty"`
}

type GetVersionIn struct {
}

type GetVersionOut struct {
	ProcctlVersion string
	APIVersion     int
	Backend        string
}

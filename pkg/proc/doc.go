// Package proc defines the process-control vocabulary shared by the native
// backends and the RPC service.
//
// proc implements:
// * the error taxonomy for ptrace-family requests
// * the trace registry (one owner per pid)
// * wait status decoding
//
// The syscalls themselves live in pkg/proc/native.
package proc

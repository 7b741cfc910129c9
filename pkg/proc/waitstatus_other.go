//go:build !linux && !darwin && !freebsd

package proc

// DecodeWaitStatus reports no status change; this host has no wait4.
func DecodeWaitStatus(raw int) WaitStatus {
	return WaitStatus{}
}

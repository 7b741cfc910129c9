//go:build linux || darwin || freebsd

package native

import sys "golang.org/x/sys/unix"

func wait4(pid, options int) (int, int, error) {
	var s sys.WaitStatus
	wpid, err := sys.Wait4(pid, &s, options, nil)
	return wpid, int(s), err
}

//go:build linux || darwin || freebsd

package cmds

import (
	"fmt"
	"strings"

	sys "golang.org/x/sys/unix"
)

func parseWaitOptions(s string) (int, error) {
	options := 0
	if s == "" {
		return options, nil
	}
	for _, opt := range strings.Split(s, ",") {
		switch strings.TrimSpace(opt) {
		case "nohang":
			options |= sys.WNOHANG
		case "untraced":
			options |= sys.WUNTRACED
		case "continued":
			options |= sys.WCONTINUED
		default:
			return 0, fmt.Errorf("unknown wait option %q", opt)
		}
	}
	return options, nil
}

//go:build !linux && !darwin && !freebsd

package cmds

import "errors"

func parseWaitOptions(s string) (int, error) {
	if s != "" {
		return 0, errors.New("wait options are not supported on this platform")
	}
	return 0, nil
}

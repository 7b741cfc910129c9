//go:build darwin || freebsd

package native

func waitOptions(options int) int {
	return options
}

package native

import sys "golang.org/x/sys/unix"

// __WALL also reports tracees that are clone children.
func waitOptions(options int) int {
	return options | sys.WALL
}

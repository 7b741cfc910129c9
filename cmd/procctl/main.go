package main

import (
	"os"

	"github.com/mem-editor/procctl/cmd/procctl/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}

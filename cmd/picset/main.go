package main

import (
	"os"

	"github.com/picset/picset/cmd/picset/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/lab271/sensorkb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

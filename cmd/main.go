package main

import (
	"os"

	"github.com/osamahm/biosphere/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

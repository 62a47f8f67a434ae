package main

import (
	"os"

	"github.com/idsession/idsession/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/valet-app/molegate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

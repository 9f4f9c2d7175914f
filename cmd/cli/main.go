// Package main is the entry point for the gridsync CLI binary.
package main

import (
	"os"

	cli "gridsync/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}

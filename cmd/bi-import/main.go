// Package main is the entry point for the bi-import CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/bi-import/cmd/bi-import/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
)

// Version information (set at build time with -ldflags), mirroring the
// teacher's own main.go version-variable convention.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main provides the entry point for cloudant-sessions.
//
// cloudant-sessions is the maintenance tool for the session store:
// one-shot cleanups, reachability checks, and a scheduled cleanup
// daemon with Prometheus metrics.
package main

import (
	"fmt"
	"os"

	"github.com/SteffenDE/connect-cloudant-store/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

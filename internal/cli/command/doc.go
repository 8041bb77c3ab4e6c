// Package command provides CLI command definitions for cloudant-sessions.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command and global flags
//   - config.go: Configuration schema and loading
//   - cleanup.go: One-shot expired-session cleanup
//   - check.go: Store reachability probe
//   - run.go: Long-running cleanup daemon with metrics
//
// Commands follow a consistent pattern of loading configuration,
// building the session store, and reporting the result.
package command

// Package buildinfo exposes build-time version information injected via
// ldflags: semantic version, git commit, build timestamp, and Go version.
package buildinfo

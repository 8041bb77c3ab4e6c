// Package confloader loads the session store configuration.
//
// It is a thin layer over koanf that merges sources in priority order
// (highest to lowest):
//
//  1. Command-line flags (loaded as a map by the CLI)
//  2. Environment variables (CLOUDANT_SESSIONS_*)
//  3. YAML configuration file
//
// The watcher half reloads the file on change, so the cleanup daemon can
// pick up a new log level or cleanup cadence without a restart.
package confloader

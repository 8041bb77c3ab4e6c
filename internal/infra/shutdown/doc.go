// Package shutdown coordinates graceful process termination.
//
// The cleanup daemon registers hooks (stop the cron scheduler, close the
// metrics listener, close the store) and blocks in Wait until SIGINT or
// SIGTERM arrives. Hooks run in reverse registration order under a
// deadline, so a hung store close cannot keep the process alive forever.
package shutdown

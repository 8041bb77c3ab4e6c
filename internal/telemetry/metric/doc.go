// Package metric provides Prometheus metrics for the session store.
//
// All metrics live under the cloudant_sessions namespace on a dedicated
// registry, so embedding applications never collide with the default
// global registry. Metrics are exposed at /metrics in Prometheus format.
package metric

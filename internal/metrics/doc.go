// Package metrics renders the latest reading as a Prometheus text
// exposition. The API layer mounts Handler at /metrics.
package metrics

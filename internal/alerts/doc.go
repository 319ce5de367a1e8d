// Package alerts evaluates published readings against the configured
// thresholds and dispatches webhook notifications for crossings, suppressing
// repeats of the same alert kind inside the cooldown window.
package alerts

// Package webhook implements outbound notification delivery and its runtime
// configuration. A ConfigStore holds the validated delivery policy and alert
// thresholds; a Dispatcher posts Slack-style attachment payloads to the
// configured sink with bounded retries and exponential backoff.
package webhook

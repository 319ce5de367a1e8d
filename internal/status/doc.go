// Package status sends periodic status reports with the latest reading,
// independent of alert thresholds.
package status

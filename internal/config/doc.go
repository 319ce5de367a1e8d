// Package config loads and validates the roomsense YAML configuration file
// and watches it for changes at runtime. Secrets (the webhook URL) are never
// stored in the file — only the name of the environment variable that holds
// them.
package config

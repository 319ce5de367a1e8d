// Package store holds the latest published environmental Reading. It is the
// single point of truth the API layer, status reporter, metrics exposition
// and WebSocket hub all read from.
package store

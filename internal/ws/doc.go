// Package ws implements the WebSocket hub that pushes the latest
// environmental reading to connected dashboard clients.
package ws

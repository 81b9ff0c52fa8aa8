// Package server exposes the subscriber-facing HTTP surface: the
// WebSocket endpoint that feeds the hub, JSON endpoints for the current
// quote and history, a health check, and the static viewer page.
package server

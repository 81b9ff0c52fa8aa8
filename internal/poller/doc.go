// Package poller provides a REST fallback that periodically fetches the
// 24h ticker and refreshes the shared quote state. It is disabled by
// default; the streaming connection is the primary data path.
package poller

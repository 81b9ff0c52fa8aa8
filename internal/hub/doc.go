// Package hub implements the subscriber registry and fan-out.
//
// Delivery is best-effort, at-most-once: a subscriber whose send fails is
// pruned from the registry and the broadcast continues to the rest. A slow
// subscriber loses messages (bounded send buffer, drop on overflow) instead
// of stalling delivery to others.
package hub

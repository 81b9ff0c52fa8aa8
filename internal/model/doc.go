// Package model defines the shared data types of the relay.
//
// Conventions:
//   - Prices and volumes: float64, as reported by the exchange
//   - Timestamps: int64 milliseconds since Unix epoch
//   - JSON tags are the downstream wire format pushed to subscribers
package model

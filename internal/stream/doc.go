// Package stream implements the upstream streaming client.
//
// The stream manager:
//   - Owns one logical WebSocket session to the MEXC push endpoint at a time
//   - Subscribes to the ticker and deal channels for the configured symbol
//   - Runs the application-level heartbeat (ping/pong with a pong deadline)
//   - Normalizes push messages into quote updates on the shared state
//   - Reconnects after a fixed delay on any error or heartbeat timeout
package stream

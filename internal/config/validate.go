package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}

	if c.API.RestURL == "" {
		return errors.New("api.rest_url is required")
	}
	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}

	if c.Stream.PingInterval <= 0 {
		return errors.New("stream.ping_interval must be positive")
	}
	if c.Stream.PongTimeout <= 0 {
		return errors.New("stream.pong_timeout must be positive")
	}
	if c.Stream.ReconnectDelay <= 0 {
		return errors.New("stream.reconnect_delay must be positive")
	}
	if c.Stream.BufferSize < 1 {
		return errors.New("stream.buffer_size must be >= 1")
	}

	if c.Relay.BroadcastInterval <= 0 {
		return errors.New("relay.broadcast_interval must be positive")
	}
	if c.Relay.TickGranularity <= 0 {
		return errors.New("relay.tick_granularity must be positive")
	}
	if c.Relay.TickGranularity > c.Relay.BroadcastInterval {
		return fmt.Errorf("relay.tick_granularity (%s) cannot exceed broadcast_interval (%s)",
			c.Relay.TickGranularity, c.Relay.BroadcastInterval)
	}
	if c.Relay.MaxHistory < 1 {
		return errors.New("relay.max_history must be >= 1")
	}

	if c.Poller.Enabled && c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive when poller is enabled")
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("cache.addr is required when cache is enabled")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSymbol            = "USDCUSDT"
	DefaultRestURL           = "https://api.mexc.com"
	DefaultStreamURL         = "wss://contract.mexc.com/edge"
	DefaultAPITimeout        = 10 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultPongTimeout       = 1 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultStreamBufferSize  = 1000
	DefaultBroadcastInterval = 100 * time.Millisecond
	DefaultTickGranularity   = 10 * time.Millisecond
	DefaultMaxHistory        = 1000
	DefaultPollInterval      = 5 * time.Second
	DefaultRedisAddr         = "localhost:6379"
	DefaultServerPort        = 5000
	DefaultStaticDir         = "web"
)

func (c *RelayConfig) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = DefaultSymbol
	}

	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Stream defaults
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.PongTimeout == 0 {
		c.Stream.PongTimeout = DefaultPongTimeout
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Relay loop defaults
	if c.Relay.BroadcastInterval == 0 {
		c.Relay.BroadcastInterval = DefaultBroadcastInterval
	}
	if c.Relay.TickGranularity == 0 {
		c.Relay.TickGranularity = DefaultTickGranularity
	}
	if c.Relay.MaxHistory == 0 {
		c.Relay.MaxHistory = DefaultMaxHistory
	}

	// Poller defaults (Enabled stays false unless set)
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}

	// Cache defaults (Enabled stays false unless set)
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultRedisAddr
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultStaticDir
	}
}

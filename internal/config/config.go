package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Symbol string       `yaml:"symbol"`
	API    APIConfig    `yaml:"api"`
	Stream StreamConfig `yaml:"stream"`
	Relay  LoopConfig   `yaml:"relay"`
	Poller PollerConfig `yaml:"poller"`
	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

// APIConfig holds MEXC REST API settings.
type APIConfig struct {
	RestURL string        `yaml:"rest_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StreamConfig holds the upstream WebSocket settings.
type StreamConfig struct {
	URL string `yaml:"url"`

	// PingInterval is how often a heartbeat ping is sent when none is
	// outstanding. PongTimeout is how long an outstanding ping may wait for
	// its pong before the connection is declared dead. The defaults are
	// 30s/1s; the mismatch is deliberate and both are tunables, not derived
	// values.
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`

	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	BufferSize     int           `yaml:"buffer_size"`
}

// LoopConfig holds the rebroadcast loop settings.
type LoopConfig struct {
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	TickGranularity   time.Duration `yaml:"tick_granularity"`
	MaxHistory        int           `yaml:"max_history"`
}

// PollerConfig holds the REST fallback poller settings.
// The poller is shipped disabled; it exists so the REST path can be
// re-enabled without structural change.
type PollerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// CacheConfig holds the optional Redis quote mirror settings.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig holds the subscriber-facing HTTP server settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

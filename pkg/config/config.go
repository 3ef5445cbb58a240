package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// WebSocketConfig holds WebSocket-specific configuration
type WebSocketConfig struct {
	WriteTimeout time.Duration // Timeout for writing messages to WebSocket
	ReadTimeout  time.Duration // Timeout for reading messages from WebSocket (keepalive)
	PingInterval time.Duration // Interval for sending ping messages
	QueueSize    int           // Buffered state changes per client before dropping
}

type Config struct {
	// Server configuration
	HTTPAddr string
	LogLevel string

	// Tile timers
	StatsInterval time.Duration
	BlinkInterval time.Duration

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Session started by `serve` when set, and checked by `check-config`
	Session Session
}

// fileConfig mirrors the TOML layout; durations are strings like "10s".
type fileConfig struct {
	HTTPAddr      string  `toml:"http_addr"`
	LogLevel      string  `toml:"log_level"`
	StatsInterval string  `toml:"stats_interval"`
	BlinkInterval string  `toml:"blink_interval"`
	Session       Session `toml:"session"`

	WebSocket struct {
		WriteTimeout string `toml:"write_timeout"`
		ReadTimeout  string `toml:"read_timeout"`
		PingInterval string `toml:"ping_interval"`
		QueueSize    int    `toml:"queue_size"`
	} `toml:"websocket"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		StatsInterval: 10 * time.Second,
		BlinkInterval: 600 * time.Millisecond,

		// WebSocket defaults
		WebSocket: WebSocketConfig{
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  3 * time.Minute,
			PingInterval: 60 * time.Second,
			QueueSize:    100,
		},
		Session: DefaultSession(),
	}
}

// Load applies defaults, then the TOML file at path (if any), then environment variables.
// Flags are layered on top by the command.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MEETING_VIEW_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	fc := fileConfig{Session: c.Session}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return errors.Wrapf(ErrInvalidConfigFile, "%s: %v", path, err)
	}

	if fc.HTTPAddr != "" {
		c.HTTPAddr = fc.HTTPAddr
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	c.Session = fc.Session

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"stats_interval", fc.StatsInterval, &c.StatsInterval},
		{"blink_interval", fc.BlinkInterval, &c.BlinkInterval},
		{"websocket.write_timeout", fc.WebSocket.WriteTimeout, &c.WebSocket.WriteTimeout},
		{"websocket.read_timeout", fc.WebSocket.ReadTimeout, &c.WebSocket.ReadTimeout},
		{"websocket.ping_interval", fc.WebSocket.PingInterval, &c.WebSocket.PingInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil || v <= 0 {
			return errors.Wrapf(ErrInvalidDuration, "%s = %q", d.name, d.raw)
		}
		*d.dst = v
	}
	if fc.WebSocket.QueueSize > 0 {
		c.WebSocket.QueueSize = fc.WebSocket.QueueSize
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if id := os.Getenv("MEETING_ID"); id != "" {
		cfg.Session.MeetingID = id
	}
	if redirect := os.Getenv("REDIRECT_ON_LEAVE"); redirect != "" {
		cfg.Session.RedirectOnLeave = redirect
	}
	if recorder := os.Getenv("IS_RECORDER"); recorder != "" {
		if v, err := strconv.ParseBool(recorder); err == nil {
			cfg.Session.IsRecorder = v
		}
	}

	// WebSocket timeouts and ping interval in seconds, stats interval in milliseconds
	if timeout := os.Getenv("WEBSOCKET_WRITE_TIMEOUT"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil {
			cfg.WebSocket.WriteTimeout = time.Duration(seconds) * time.Second
		}
	}
	if timeout := os.Getenv("WEBSOCKET_READ_TIMEOUT"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil {
			cfg.WebSocket.ReadTimeout = time.Duration(seconds) * time.Second
		}
	}
	if interval := os.Getenv("WEBSOCKET_PING_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil {
			cfg.WebSocket.PingInterval = time.Duration(seconds) * time.Second
		}
	}
	if interval := os.Getenv("STATS_INTERVAL_MS"); interval != "" {
		if ms, err := strconv.Atoi(interval); err == nil && ms > 0 {
			cfg.StatsInterval = time.Duration(ms) * time.Millisecond
		}
	}
}

// Validate checks the session block. Server settings fall back to defaults when unset.
func (c *Config) Validate() error {
	return c.Session.Validate()
}

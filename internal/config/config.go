// Package config defines this module's runtime configuration, loaded
// from the environment with github.com/sethvargo/go-envconfig.
package config

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Duration wraps time.Duration so it can be populated from either a Go
// duration string ("15s") or a bare number of seconds ("15"), matching
// spec.md §6: "durations accept either a duration-typed value or a
// number of seconds."
type Duration time.Duration

// EnvDecode implements envconfig.Decoder.
func (d *Duration) EnvDecode(val string) error {
	if parsed, err := time.ParseDuration(val); err == nil {
		*d = Duration(parsed)
		return nil
	}
	seconds, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("config: %q is neither a duration nor a number of seconds", val)
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

// Seconds returns the duration expressed in seconds.
func (d Duration) Seconds() float64 {
	return time.Duration(d).Seconds()
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the module's full runtime configuration.
type Config struct {
	// ListenAddr is the local UDP address the server binds to.
	ListenAddr string `env:"ARQ_LISTEN_ADDR,default=0.0.0.0:4321"`

	// DisconnectTimeout is the idle timeout on the receive side of both
	// the client and the server's per-session handler: no packet within
	// this window means the peer is gone.
	DisconnectTimeout Duration `env:"ARQ_DISCONNECT_TIMEOUT,default=15s"`

	// MaxPendingPackets bounds each session's inbound datagram queue.
	MaxPendingPackets int `env:"ARQ_MAX_PENDING_PACKETS,default=32"`

	// RetransmitDelay is how long the ARQ sender waits for an ACK before
	// retransmitting the current DATA packet.
	RetransmitDelay Duration `env:"ARQ_RETRANSMIT_DELAY,default=10ms"`

	// LogLevel is a logrus level name ("debug", "info", "warn", ...).
	LogLevel string `env:"ARQ_LOG_LEVEL,default=info"`
}

// Load reads Config from the process environment, applying defaults for
// anything unset.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

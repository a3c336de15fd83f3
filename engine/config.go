package engine

import "time"

// Config is the engine's SessionConfig: everything needed to dial,
// authenticate, and police a single FIX session.
type Config struct {
	SocketHost string
	SocketPort int

	BeginString    string
	SenderCompID   string
	TargetCompID   string
	SenderPassword string

	HeartBeatInterval   time.Duration
	MaxMissedHeartBeats int

	MaxReconnectAttempts int
	ReconnectInterval    time.Duration

	MaxMessagesNo          int
	MaxMessagesPeriodInSec int

	FileLogPath string
}

// withDefaults returns a copy of cfg with zero-value fields replaced by
// sensible defaults, the way go-sol.New applies defaults to its Config
// before use.
func (cfg Config) withDefaults() Config {
	if cfg.HeartBeatInterval <= 0 {
		cfg.HeartBeatInterval = 30 * time.Second
	}
	if cfg.MaxMissedHeartBeats <= 0 {
		cfg.MaxMissedHeartBeats = 3
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.MaxMessagesNo <= 0 {
		cfg.MaxMessagesNo = 10
	}
	if cfg.MaxMessagesPeriodInSec <= 0 {
		cfg.MaxMessagesPeriodInSec = 1
	}
	return cfg
}

// Package config loads the YAML-backed SessionConfig used to construct
// an engine.Config: one or more named gateway sections, each providing
// the recognized SessionConfig keys.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Gateway is one named session's configuration, as loaded from YAML.
type Gateway struct {
	SocketHost   string `yaml:"socket_host"`
	SocketPort   int    `yaml:"socket_port"`
	BeginString  string `yaml:"begin_string"`
	SenderCompID string `yaml:"sender_comp_id"`
	TargetCompID string `yaml:"target_comp_id"`
	SenderPassword string `yaml:"sender_password"`

	HeartBeatIntervalSec int `yaml:"heartbeat_interval_sec"`
	MaxMissedHeartBeats  int `yaml:"max_missed_heartbeats"`

	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`
	ReconnectIntervalSec int `yaml:"reconnect_interval_sec"`

	MaxMessagesNo         int `yaml:"max_messages_no"`
	MaxMessagesPeriodSec  int `yaml:"max_messages_period_sec"`

	FileLogPath string `yaml:"file_log_path"`
}

// HeartBeatInterval returns the configured heartbeat interval as a
// time.Duration.
func (g Gateway) HeartBeatInterval() time.Duration {
	return time.Duration(g.HeartBeatIntervalSec) * time.Second
}

// ReconnectInterval returns the configured logon-retry interval as a
// time.Duration.
func (g Gateway) ReconnectInterval() time.Duration {
	return time.Duration(g.ReconnectIntervalSec) * time.Second
}

// File is the top-level YAML document: a map of gateway name to Gateway
// configuration, allowing one file to describe several counterparties
// even though a single engine process drives only one at a time.
type File struct {
	Gateways map[string]Gateway `yaml:"gateways"`
}

// defaultGateway holds the defaults Load merges into a gateway section
// after yaml.Unmarshal (see mergeDefaults).
func defaultGateway() Gateway {
	return Gateway{
		HeartBeatIntervalSec: 30,
		MaxMissedHeartBeats:  3,
		MaxReconnectAttempts: 5,
		ReconnectIntervalSec: 5,
		MaxMessagesNo:        10,
		MaxMessagesPeriodSec: 1,
		FileLogPath:          "/var/log/fixengine",
	}
}

// Load reads path and returns the named gateway section, with defaults
// applied to any key the YAML document leaves unset.
func Load(path, section string) (*Gateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	gw, ok := file.Gateways[section]
	if !ok {
		return nil, fmt.Errorf("config: gateway section %q not found in %s", section, path)
	}

	merged := mergeDefaults(defaultGateway(), gw)
	return &merged, nil
}

// mergeDefaults fills zero-value numeric/string fields in gw with the
// corresponding value from def, leaving non-zero YAML values untouched.
// An explicit 0 or empty string cannot be told apart from an unset key
// and also receives the default.
func mergeDefaults(def, gw Gateway) Gateway {
	if gw.HeartBeatIntervalSec == 0 {
		gw.HeartBeatIntervalSec = def.HeartBeatIntervalSec
	}
	if gw.MaxMissedHeartBeats == 0 {
		gw.MaxMissedHeartBeats = def.MaxMissedHeartBeats
	}
	if gw.MaxReconnectAttempts == 0 {
		gw.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if gw.ReconnectIntervalSec == 0 {
		gw.ReconnectIntervalSec = def.ReconnectIntervalSec
	}
	if gw.MaxMessagesNo == 0 {
		gw.MaxMessagesNo = def.MaxMessagesNo
	}
	if gw.MaxMessagesPeriodSec == 0 {
		gw.MaxMessagesPeriodSec = def.MaxMessagesPeriodSec
	}
	if gw.FileLogPath == "" {
		gw.FileLogPath = def.FileLogPath
	}
	return gw
}

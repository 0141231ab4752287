// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is given.
const EnvironmentVariable = "WPAN_RELAY_CONFIG"

// DeviceKind selects how the local virtual interface is opened.
type DeviceKind string

const (
	// DeviceWPANTap opens the wpantap character device directly.
	DeviceWPANTap DeviceKind = "wpantap"
	// DeviceTAP creates a Linux TAP interface. Useful for exercising the
	// tunnel on hosts without the wpantap kernel module.
	DeviceTAP DeviceKind = "tap"
)

// Upper bound on relay.poll_timeout. The loop only notices a stop
// request between waits, so anything longer makes shutdown sluggish.
const maxPollTimeout = 5 * time.Second

// Config is the relay configuration.
type Config struct {
	// Me is the local address the UDP socket binds to.
	Me Address `json:"me" yaml:"me"`

	// Peer is the single remote relay that frames are sent to.
	Peer Address `json:"peer" yaml:"peer"`

	// Device configures the local virtual interface.
	Device DeviceConfig `json:"device" yaml:"device"`

	// Relay tunes the relay loop.
	Relay RelayConfig `json:"relay" yaml:"relay"`

	// Log configures the structured logger.
	Log LogConfig `json:"log" yaml:"log"`
}

// Address is an {ip, port} endpoint descriptor.
type Address struct {
	IP   string `json:"ip" yaml:"ip"`
	Port int    `json:"port" yaml:"port"`
}

// String returns the address in host:port form.
func (a Address) String() string {
	return net.JoinHostPort(a.IP, fmt.Sprint(a.Port))
}

// IsZero reports whether neither field was set.
func (a Address) IsZero() bool {
	return a.IP == "" && a.Port == 0
}

// DeviceConfig configures the local virtual interface.
type DeviceConfig struct {
	// Kind is "wpantap" (default) or "tap".
	Kind DeviceKind `json:"kind" yaml:"kind"`

	// Path is the character device opened for kind wpantap.
	// Default: /dev/net/wpantap
	Path string `json:"path" yaml:"path"`

	// Name is the interface name requested for kind tap. Empty lets the
	// kernel pick one.
	Name string `json:"name" yaml:"name"`
}

// RelayConfig tunes the relay loop.
type RelayConfig struct {
	// PollTimeout bounds each readiness wait, and therefore how long a
	// stop request can go unnoticed.
	// Default: 500ms
	PollTimeout string `json:"poll_timeout" yaml:"poll_timeout"`

	// MaxFrameSize is the read buffer size for both endpoints.
	// Default: 1024
	MaxFrameSize int `json:"max_frame_size" yaml:"max_frame_size"`

	// TrailerSize is the number of FCS bytes stripped from datagrams
	// before they are written to the device.
	// Default: 2
	TrailerSize int `json:"trailer_size" yaml:"trailer_size"`

	// StatsInterval is how often relay counters are logged. Zero
	// disables periodic reports; counters are still logged at exit.
	// Default: 0s
	StatsInterval string `json:"stats_interval" yaml:"stats_interval"`

	// StrictPeer drops datagrams whose source address is not Peer.
	// Default: false (any sender reaching the bound port is relayed)
	StrictPeer bool `json:"strict_peer" yaml:"strict_peer"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `json:"level" yaml:"level"`

	// Format is auto, text, or json. Auto picks text on a terminal and
	// json otherwise.
	// Default: auto
	Format string `json:"format" yaml:"format"`
}

// Default returns a configuration with every optional field set. Me and
// Peer are left empty: they must come from the file.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Kind: DeviceWPANTap,
			Path: "/dev/net/wpantap",
		},
		Relay: RelayConfig{
			PollTimeout:   "500ms",
			MaxFrameSize:  1024,
			TrailerSize:   2,
			StatsInterval: "0s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by WPAN_RELAY_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your relay config file, or use --config", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from path on top of [Default]. The
// result is not validated; call [Config.Validate].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist: %w", path, err)
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && err != io.EOF {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Me.IP = expandVars(c.Me.IP)
	c.Peer.IP = expandVars(c.Peer.IP)
	c.Device.Path = expandVars(c.Device.Path)
	c.Device.Name = expandVars(c.Device.Name)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, validateAddress("me", c.Me)...)
	errs = append(errs, validateAddress("peer", c.Peer)...)

	switch c.Device.Kind {
	case DeviceWPANTap:
		if c.Device.Path == "" {
			errs = append(errs, fmt.Errorf("device.path is required for kind %q", DeviceWPANTap))
		}
	case DeviceTAP:
	default:
		errs = append(errs, fmt.Errorf("device.kind must be one of: %v", []DeviceKind{DeviceWPANTap, DeviceTAP}))
	}

	if timeout, err := time.ParseDuration(c.Relay.PollTimeout); err != nil {
		errs = append(errs, fmt.Errorf("relay.poll_timeout: %w", err))
	} else if timeout <= 0 || timeout > maxPollTimeout {
		errs = append(errs, fmt.Errorf("relay.poll_timeout must be in (0, %s], got %s", maxPollTimeout, timeout))
	}

	if c.Relay.MaxFrameSize < 1 || c.Relay.MaxFrameSize > 65535 {
		errs = append(errs, fmt.Errorf("relay.max_frame_size must be between 1 and 65535, got %d", c.Relay.MaxFrameSize))
	}
	if c.Relay.TrailerSize < 1 {
		errs = append(errs, fmt.Errorf("relay.trailer_size must be at least 1, got %d", c.Relay.TrailerSize))
	} else if c.Relay.TrailerSize >= c.Relay.MaxFrameSize {
		errs = append(errs, fmt.Errorf("relay.trailer_size (%d) must be smaller than relay.max_frame_size (%d)",
			c.Relay.TrailerSize, c.Relay.MaxFrameSize))
	}

	if interval, err := time.ParseDuration(c.Relay.StatsInterval); err != nil {
		errs = append(errs, fmt.Errorf("relay.stats_interval: %w", err))
	} else if interval < 0 {
		errs = append(errs, fmt.Errorf("relay.stats_interval must not be negative, got %s", interval))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	formats := []string{"auto", "text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateAddress(field string, address Address) []error {
	if address.IsZero() {
		return []error{fmt.Errorf("%s is required", field)}
	}
	var errs []error
	if address.IP == "" {
		errs = append(errs, fmt.Errorf("%s.ip is required", field))
	} else if net.ParseIP(address.IP) == nil {
		errs = append(errs, fmt.Errorf("%s.ip %q is not an IP address", field, address.IP))
	}
	if address.Port < 1 || address.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s.port must be between 1 and 65535, got %d", field, address.Port))
	}
	return errs
}

// PollTimeout returns relay.poll_timeout as a duration. Only meaningful
// after Validate succeeds.
func (c *Config) PollTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Relay.PollTimeout)
	return timeout
}

// StatsInterval returns relay.stats_interval as a duration. Only
// meaningful after Validate succeeds.
func (c *Config) StatsInterval() time.Duration {
	interval, _ := time.ParseDuration(c.Relay.StatsInterval)
	return interval
}

// SlogLevel maps log.level onto a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be one of: [debug info warn error], got %q", l.Level)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

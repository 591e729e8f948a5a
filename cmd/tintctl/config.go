package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for tintctl.
//
// Keep defaults and validation centralized so the rest of the code can
// assume a well-formed config.
type Config struct {
	// Tint service connection
	Service ServiceConfig `yaml:"service"`

	// Editing session behavior
	Session SessionConfig `yaml:"session"`

	// Profile persistence
	Store StoreConfig `yaml:"store"`

	// IPC action socket
	IPC IPCConfig `yaml:"ipc"`

	// Hardware button input
	Input InputConfig `yaml:"input"`

	// Parameter bounds and defaults
	Limits Limits `yaml:"limits"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// In-process service simulator (service-sim subcommand)
	Sim SimConfig `yaml:"sim"`
}

type ServiceConfig struct {
	WsURL           string `yaml:"ws_url"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	ConnectAttempts int    `yaml:"connect_attempts"`
	RetryDelayMS    int    `yaml:"retry_delay_ms"`
}

type SessionConfig struct {
	TickHz          int `yaml:"tick_hz"`
	DebounceTicks   int `yaml:"debounce_ticks"`
	NudgeWindowMS   int `yaml:"nudge_window_ms"`
	NudgeThreshold  int `yaml:"nudge_threshold"`
	NudgeMultiplier int `yaml:"nudge_multiplier"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // "yaml" or "sqlite"
	Path    string `yaml:"path"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"` // empty disables IPC
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"` // Linux evdev devices; empty disables
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives logs while the terminal UI owns stdout.
	File string `yaml:"file"`
}

type SimConfig struct {
	Listen          string `yaml:"listen"`
	PerformanceMode string `yaml:"performance_mode"` // "normal" or "other"
	ServiceActive   bool   `yaml:"service_active"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			WsURL:           "ws://127.0.0.1:7438/tint",
			TimeoutMS:       defaultReadTimeoutMS,
			ConnectAttempts: 3,
			RetryDelayMS:    200,
		},
		Session: SessionConfig{
			TickHz:          defaultTickHz,
			DebounceTicks:   defaultDebounceTicks,
			NudgeWindowMS:   defaultNudgeWindowMS,
			NudgeThreshold:  defaultNudgeThreshold,
			NudgeMultiplier: defaultNudgeMultiplier,
		},
		Store: StoreConfig{
			Backend: StoreBackendYAML,
			Path:    "~/.config/tintctl/profiles.yaml",
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/tintctl.sock",
		},
		Limits: DefaultLimits(),
		Logging: LoggingConfig{
			Level: "info",
			File:  "/tmp/tintctl.log",
		},
		Sim: SimConfig{
			Listen:          "127.0.0.1:7438",
			PerformanceMode: "normal",
			ServiceActive:   true,
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the defaults.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds values from command-line flags. Each non-nil pointer
// is applied on top of the loaded config, even if it is a zero value.
type FlagOverrides struct {
	ServiceWsURL     *string
	ServiceTimeoutMS *int

	TickHz        *int
	DebounceTicks *int

	StoreBackend *string
	StorePath    *string

	IPCSocketPath *string
	InputDevice   *string

	LogLevel *string
	LogFile  *string

	SimListen          *string
	SimPerformanceMode *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.ServiceWsURL != nil {
		cfg.Service.WsURL = *o.ServiceWsURL
	}
	if o.ServiceTimeoutMS != nil {
		cfg.Service.TimeoutMS = *o.ServiceTimeoutMS
	}
	if o.TickHz != nil {
		cfg.Session.TickHz = *o.TickHz
	}
	if o.DebounceTicks != nil {
		cfg.Session.DebounceTicks = *o.DebounceTicks
	}
	if o.StoreBackend != nil {
		cfg.Store.Backend = *o.StoreBackend
	}
	if o.StorePath != nil {
		cfg.Store.Path = *o.StorePath
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.InputDevice != nil {
		if *o.InputDevice == "" {
			cfg.Input.Devices = nil
		} else {
			cfg.Input.Devices = []string{*o.InputDevice}
		}
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Logging.File = *o.LogFile
	}
	if o.SimListen != nil {
		cfg.Sim.Listen = *o.SimListen
	}
	if o.SimPerformanceMode != nil {
		cfg.Sim.PerformanceMode = *o.SimPerformanceMode
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Service
	if c.Service.WsURL == "" {
		return errors.New("service.ws_url must not be empty")
	}
	if c.Service.TimeoutMS <= 0 {
		return errors.New("service.timeout_ms must be > 0")
	}
	if c.Service.ConnectAttempts < 1 {
		return errors.New("service.connect_attempts must be >= 1")
	}
	if c.Service.RetryDelayMS < 0 {
		return errors.New("service.retry_delay_ms must be >= 0")
	}

	// Session
	if c.Session.TickHz <= 0 || c.Session.TickHz > 1000 {
		return errors.New("session.tick_hz must be between 1 and 1000")
	}
	if c.Session.DebounceTicks < 1 {
		return errors.New("session.debounce_ticks must be >= 1")
	}
	if c.Session.NudgeWindowMS < 0 {
		return errors.New("session.nudge_window_ms must be >= 0")
	}
	if c.Session.NudgeThreshold < 0 {
		return errors.New("session.nudge_threshold must be >= 0")
	}
	if c.Session.NudgeMultiplier < 1 {
		return errors.New("session.nudge_multiplier must be >= 1")
	}

	// Store
	switch c.Store.Backend {
	case StoreBackendYAML, StoreBackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q", StoreBackendYAML, StoreBackendSQLite)
	}
	if c.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	if err := c.Limits.Validate(); err != nil {
		return err
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	// Sim
	if _, err := ParsePerformanceMode(c.Sim.PerformanceMode); err != nil {
		return fmt.Errorf("sim.performance_mode: %w", err)
	}

	return nil
}

// NudgeConfig converts the session section into the reducer's nudge config.
func (c *Config) NudgeConfig() NudgeConfig {
	return NudgeConfig{
		WindowMS:   c.Session.NudgeWindowMS,
		Threshold:  c.Session.NudgeThreshold,
		Multiplier: c.Session.NudgeMultiplier,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}

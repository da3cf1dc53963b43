package server

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/store"
)

// Config represents the complete server configuration
type Config struct {
	Server       ServerSettings  `hcl:"server,block"`
	RoomDefaults RoomDefaults    `hcl:"room_defaults,block"`
	Storage      StorageSettings `hcl:"storage,block"`
	NATS         *NATSSettings   `hcl:"nats,block"`
}

// ServerSettings contains server-level configuration. Durations use Go
// duration syntax, e.g. "2.5s".
type ServerSettings struct {
	Address           string  `hcl:"address,optional"`
	Port              int     `hcl:"port,optional"`
	LogLevel          string  `hcl:"log_level,optional"`
	LogFile           string  `hcl:"log_file,optional"`
	ConfirmTimeout    string  `hcl:"confirm_timeout,optional"`
	RevealHoleDelay   string  `hcl:"reveal_hole_delay,optional"`
	RevealStreetDelay string  `hcl:"reveal_street_delay,optional"`
	IdleRoomTTL       string  `hcl:"idle_room_ttl,optional"`
	SweepInterval     string  `hcl:"sweep_interval,optional"`
	MaxMessageRate    float64 `hcl:"max_message_rate,optional"`
	MessageBurst      int     `hcl:"message_burst,optional"`
}

// RoomDefaults apply to rooms created without explicit options
type RoomDefaults struct {
	MaxPlayers    int `hcl:"max_players,optional"`
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartingChips int `hcl:"starting_chips,optional"`
}

// StorageSettings selects the snapshot store
type StorageSettings struct {
	Driver        string `hcl:"driver,optional"`
	RedisAddress  string `hcl:"redis_address,optional"`
	RedisPassword string `hcl:"redis_password,optional"`
	RedisDB       int    `hcl:"redis_db,optional"`
	SQLitePath    string `hcl:"sqlite_path,optional"`
}

// NATSSettings enables snapshot fan-out over NATS
type NATSSettings struct {
	URL           string `hcl:"url"`
	SubjectPrefix string `hcl:"subject_prefix,optional"`
}

// fileConfig mirrors Config with optional blocks for decoding.
type fileConfig struct {
	Server       *ServerSettings  `hcl:"server,block"`
	RoomDefaults *RoomDefaults    `hcl:"room_defaults,block"`
	Storage      *StorageSettings `hcl:"storage,block"`
	NATS         *NATSSettings    `hcl:"nats,block"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := &Config{NATS: fc.NATS}
	if fc.Server != nil {
		cfg.Server = *fc.Server
	}
	if fc.RoomDefaults != nil {
		cfg.RoomDefaults = *fc.RoomDefaults
	}
	if fc.Storage != nil {
		cfg.Storage = *fc.Storage
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Address == "" {
		s.Address = "localhost"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	timings := game.DefaultTimings()
	if s.ConfirmTimeout == "" {
		s.ConfirmTimeout = timings.ConfirmTimeout.String()
	}
	if s.RevealHoleDelay == "" {
		s.RevealHoleDelay = timings.RevealHoleDelay.String()
	}
	if s.RevealStreetDelay == "" {
		s.RevealStreetDelay = timings.RevealStreetDelay.String()
	}
	if s.IdleRoomTTL == "" {
		s.IdleRoomTTL = "15m"
	}
	if s.SweepInterval == "" {
		s.SweepInterval = "1m"
	}
	if s.MaxMessageRate == 0 {
		s.MaxMessageRate = 20
	}
	if s.MessageBurst == 0 {
		s.MessageBurst = 40
	}

	r := &c.RoomDefaults
	if r.MaxPlayers == 0 {
		r.MaxPlayers = game.DefaultMaxPlayers
	}
	if r.SmallBlind == 0 {
		r.SmallBlind = game.DefaultSmallBlind
	}
	if r.BigBlind == 0 {
		r.BigBlind = game.DefaultBigBlind
	}
	if r.StartingChips == 0 {
		r.StartingChips = game.DefaultStartingChips
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = store.DriverMemory
	}
	if c.Storage.Driver == store.DriverRedis && c.Storage.RedisAddress == "" {
		c.Storage.RedisAddress = "localhost:6379"
	}
	if c.Storage.Driver == store.DriverSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "pokerrooms.db"
	}
	if c.NATS != nil && c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "pokerrooms"
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	durations := map[string]string{
		"confirm_timeout":     c.Server.ConfirmTimeout,
		"reveal_hole_delay":   c.Server.RevealHoleDelay,
		"reveal_street_delay": c.Server.RevealStreetDelay,
		"idle_room_ttl":       c.Server.IdleRoomTTL,
		"sweep_interval":      c.Server.SweepInterval,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Server.MaxMessageRate <= 0 || c.Server.MessageBurst <= 0 {
		return fmt.Errorf("message rate and burst must be positive")
	}

	r := c.RoomDefaults
	if r.SmallBlind <= 0 {
		return fmt.Errorf("room defaults: small blind must be positive")
	}
	if r.BigBlind <= r.SmallBlind {
		return fmt.Errorf("room defaults: big blind must be greater than small blind")
	}
	if r.MaxPlayers < 2 || r.MaxPlayers > 10 {
		return fmt.Errorf("room defaults: max players must be between 2 and 10")
	}
	if r.StartingChips < r.BigBlind {
		return fmt.Errorf("room defaults: starting chips must cover the big blind")
	}

	switch c.Storage.Driver {
	case store.DriverMemory, store.DriverRedis, store.DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.NATS != nil && c.NATS.URL == "" {
		return fmt.Errorf("nats: url is required")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// duration parses a validated duration setting.
func duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

// Timings returns the room pacing.
func (c *Config) Timings() game.Timings {
	return game.Timings{
		ConfirmTimeout:    duration(c.Server.ConfirmTimeout),
		RevealHoleDelay:   duration(c.Server.RevealHoleDelay),
		RevealStreetDelay: duration(c.Server.RevealStreetDelay),
	}
}

func (c *Config) IdleRoomTTL() time.Duration   { return duration(c.Server.IdleRoomTTL) }
func (c *Config) SweepInterval() time.Duration { return duration(c.Server.SweepInterval) }

// Rooms returns the registry defaults.
func (c *Config) Rooms() RoomOptions {
	return RoomOptions{
		MaxPlayers:    c.RoomDefaults.MaxPlayers,
		SmallBlind:    c.RoomDefaults.SmallBlind,
		BigBlind:      c.RoomDefaults.BigBlind,
		StartingChips: c.RoomDefaults.StartingChips,
	}
}

// StoreConfig returns the storage settings for store.Open.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:        c.Storage.Driver,
		RedisAddr:     c.Storage.RedisAddress,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		SQLitePath:    c.Storage.SQLitePath,
	}
}

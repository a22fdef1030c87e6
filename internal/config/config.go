// Package config loads the sniffer's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/rf-sniffer/internal/capture"
	"github.com/sweeney/rf-sniffer/internal/gpio"
	"github.com/sweeney/rf-sniffer/internal/radio"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "/etc/rf-sniffer.yaml"

// Edge sources.
const (
	SourceGPIO   = "gpio"
	SourceSerial = "serial"
)

type Config struct {
	Radio   RadioConfig   `yaml:"radio"`
	Capture CaptureConfig `yaml:"capture"`
	Replay  ReplayConfig  `yaml:"replay"`
	Store   StoreConfig   `yaml:"store"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Web     WebConfig     `yaml:"web"`
}

type RadioConfig struct {
	FrequencyMHz float64 `yaml:"frequency_mhz"`
	Preset       string  `yaml:"preset"`
	// BoardMHz is the fixed frequency of the fitted receiver/transmitter pair.
	BoardMHz float64 `yaml:"board_mhz"`
	Chip     string  `yaml:"chip"`
	RXPin    int     `yaml:"rx_pin"`
	TXPin    int     `yaml:"tx_pin"`
	RXEnable int     `yaml:"rx_enable_pin"`
	TXEnable int     `yaml:"tx_enable_pin"`
	// Source selects where edges come from: "gpio" or "serial".
	Source     string `yaml:"source"`
	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`
}

type CaptureConfig struct {
	Capacity     int           `yaml:"capacity"`
	NoiseFloorUS uint32        `yaml:"noise_floor_us"`
	RunawayUS    uint32        `yaml:"runaway_us"`
	QuietTimeout time.Duration `yaml:"quiet_timeout"`
	MinSamples   int           `yaml:"min_samples"`
	Poll         time.Duration `yaml:"poll"`
	// RepeatWindow suppresses identical codes seen again within the window.
	RepeatWindow time.Duration `yaml:"repeat_window"`
}

type ReplayConfig struct {
	// CPU pins the transmit thread; negative disables pinning.
	CPU int `yaml:"cpu"`
}

type StoreConfig struct {
	Dir string `yaml:"dir"`
}

type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
	// Replay enables POST /replay, which keys the transmitter.
	Replay bool `yaml:"replay"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			FrequencyMHz: radio.DefaultFrequency,
			Preset:       radio.DefaultPreset,
			BoardMHz:     radio.DefaultFrequency,
			Chip:         gpio.DefaultChip,
			RXPin:        gpio.PinRX,
			TXPin:        gpio.PinTX,
			RXEnable:     gpio.PinRXEnable,
			TXEnable:     gpio.PinTXEnable,
			Source:       SourceGPIO,
			SerialBaud:   115200,
		},
		Capture: CaptureConfig{
			Capacity:     capture.DefaultCapacity,
			NoiseFloorUS: capture.DefaultNoiseFloor,
			RunawayUS:    capture.DefaultRunaway,
			QuietTimeout: capture.DefaultQuietTimeout,
			MinSamples:   capture.DefaultMinSamples,
			Poll:         50 * time.Millisecond,
			RepeatWindow: 3 * time.Second,
		},
		Replay: ReplayConfig{CPU: -1},
		Store:  StoreConfig{Dir: "/var/lib/rf-sniffer"},
		MQTT: MQTTConfig{
			Broker:    "tcp://localhost:1883",
			ClientID:  "rf-sniffer",
			Heartbeat: 15 * time.Minute,
		},
		Web: WebConfig{Addr: ":80"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Params returns the configured channel.
func (c *Config) Params() radio.Params {
	return radio.Params{FrequencyMHz: c.Radio.FrequencyMHz, Preset: c.Radio.Preset}
}

// Session converts the capture section for capture.NewSession.
func (c *Config) Session() capture.Config {
	return capture.Config{
		Capacity:     c.Capture.Capacity,
		NoiseFloor:   c.Capture.NoiseFloorUS,
		Runaway:      c.Capture.RunawayUS,
		QuietTimeout: c.Capture.QuietTimeout,
		MinSamples:   c.Capture.MinSamples,
	}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	switch c.Radio.Source {
	case SourceGPIO:
	case SourceSerial:
		if c.Radio.SerialPort == "" {
			return errors.New("radio: serial source needs serial_port")
		}
		if c.Radio.SerialBaud <= 0 {
			return fmt.Errorf("radio: invalid serial_baud %d", c.Radio.SerialBaud)
		}
	default:
		return fmt.Errorf("radio: unknown source %q", c.Radio.Source)
	}
	if c.Capture.Capacity <= 0 {
		return fmt.Errorf("capture: capacity must be positive, got %d", c.Capture.Capacity)
	}
	if c.Capture.RunawayUS <= c.Capture.NoiseFloorUS {
		return fmt.Errorf("capture: runaway_us %d must exceed noise_floor_us %d", c.Capture.RunawayUS, c.Capture.NoiseFloorUS)
	}
	if c.Capture.QuietTimeout <= 0 || c.Capture.Poll <= 0 {
		return errors.New("capture: quiet_timeout and poll must be positive")
	}
	if c.Capture.RepeatWindow < 0 {
		return errors.New("capture: repeat_window must not be negative")
	}
	if c.MQTT.Heartbeat <= 0 {
		return errors.New("mqtt: heartbeat must be positive")
	}
	if c.Store.Dir == "" {
		return errors.New("store: dir is required")
	}
	return nil
}

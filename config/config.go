// Package config loads the device configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Device DeviceConfig `yaml:"device"`
	Sensor SensorConfig `yaml:"sensor"`
	Serial SerialConfig `yaml:"serial"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Name           string   `yaml:"name"`
	PeriodMs       uint32   `yaml:"period_ms"`        // wake period
	ActivePeriodMs uint32   `yaml:"active_period_ms"` // timer compare 1
	Celsius        bool     `yaml:"celsius"`          // report unit at boot
	ThresholdC     *float32 `yaml:"threshold_c"`      // LED on above, Celsius mode
	ThresholdF     *float32 `yaml:"threshold_f"`      // LED on above, Fahrenheit mode
	RingCapacity   int      `yaml:"ring_capacity"`
	SelfTest       *bool    `yaml:"self_test"` // run ring test at boot (default on)
	BootMessages   []string `yaml:"boot_messages"`
	LEDPin         *uint32  `yaml:"led_pin"`
	BlockMode      *uint8   `yaml:"block_mode"` // energy mode held blocked for the whole run
}

// ---- SENSOR ----

type SensorConfig struct {
	Address      uint8    `yaml:"address"`
	Command      *uint8   `yaml:"command"`
	SimTempC     *float32 `yaml:"sim_temp_c"`    // simulated board only
	ConversionUs uint32   `yaml:"conversion_us"` // simulated conversion time
}

// ---- SERIAL ----

type SerialConfig struct {
	Port     string `yaml:"port"` // optional real transceiver
	Baud     int    `yaml:"baud"`
	Loopback bool   `yaml:"loopback"`
	RealTime bool   `yaml:"real_time"`
}

// Load reads and validates a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the stock board configuration
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// SelfTestEnabled reports whether the boot handler runs the ring self test
func (d *DeviceConfig) SelfTestEnabled() bool {
	return d.SelfTest == nil || *d.SelfTest
}

// applyDefaults fills in missing configuration values with the board defaults
func applyDefaults(cfg *Config) {
	d := &cfg.Device
	if d.Name == "" {
		d.Name = "sensornode"
	}
	if d.PeriodMs == 0 {
		d.PeriodMs = 2700
	}
	if d.ActivePeriodMs == 0 {
		d.ActivePeriodMs = 150
	}
	if d.ThresholdC == nil {
		v := float32(30)
		d.ThresholdC = &v
	}
	if d.ThresholdF == nil {
		v := float32(80)
		d.ThresholdF = &v
	}
	if d.RingCapacity == 0 {
		d.RingCapacity = 64
	}
	if d.BootMessages == nil {
		d.BootMessages = []string{"\nHello World\n", "Sensor node up\n"}
	}
	if d.LEDPin == nil {
		p := uint32(4)
		d.LEDPin = &p
	}
	if d.BlockMode == nil {
		m := uint8(3)
		d.BlockMode = &m
	}

	s := &cfg.Sensor
	if s.Address == 0 {
		s.Address = 0x40
	}
	if s.Command == nil {
		c := uint8(0xF3)
		s.Command = &c
	}
	if s.SimTempC == nil {
		t := float32(22.5)
		s.SimTempC = &t
	}
	if s.ConversionUs == 0 {
		s.ConversionUs = 7000
	}

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
}

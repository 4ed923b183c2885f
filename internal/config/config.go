package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/ease"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

const appName = "dmxd"

// Transport kinds.
const (
	TransportUSB       = "usb"
	TransportSerial    = "serial"
	TransportSimulator = "simulator"
)

type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	DMX       DMXConfig       `yaml:"dmx"`
	Animation AnimationConfig `yaml:"animation"`
	Toggle    ToggleConfig    `yaml:"toggle"`
	API       APIConfig       `yaml:"api"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Logging   logging.Config  `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type DeviceConfig struct {
	Transport string `yaml:"transport"`

	// USB
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Config    int    `yaml:"config"`
	Interface int    `yaml:"interface"`
	Endpoint  int    `yaml:"endpoint"`
	Reset     bool   `yaml:"reset"`

	// Serial bridges
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`

	Timeout time.Duration `yaml:"timeout"`
}

type DMXConfig struct {
	// StartChannel is the 1-indexed channel receiving red; green and blue
	// follow.
	StartChannel int `yaml:"start_channel"`
}

type AnimationConfig struct {
	FPS         int    `yaml:"fps"`
	Pace        bool   `yaml:"pace"`
	DefaultEase string `yaml:"default_ease"`
	// MaxDuration caps the duration an animate request may ask for.
	MaxDuration time.Duration `yaml:"max_duration"`
}

type ToggleConfig struct {
	Color string `yaml:"color"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type DaemonConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type MetricsConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport: TransportUSB,
			VendorID:  0x10cf,
			ProductID: 0x8062,
			Config:    1,
			Interface: 0,
			Endpoint:  1,
			BaudRate:  115200,
			Timeout:   1 * time.Second,
		},
		DMX: DMXConfig{
			StartChannel: 1,
		},
		Animation: AnimationConfig{
			FPS:         30,
			Pace:        true,
			DefaultEase: "linear",
			MaxDuration: 10 * time.Minute,
		},
		Toggle: ToggleConfig{
			Color: "#FFFFFF",
		},
		API: APIConfig{
			Listen: "127.0.0.1:5000",
		},
		Daemon: DaemonConfig{
			Name:        appName,
			Description: "DMX512 color animation daemon",
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			FlushInterval: time.Minute,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = getDefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) SaveConfig(path string) error {
	if path == "" {
		path = getDefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Device.Transport {
	case TransportUSB:
		if c.Device.Endpoint <= 0 || c.Device.Endpoint > 15 {
			return fmt.Errorf("device endpoint must be between 1 and 15")
		}
	case TransportSerial:
		if c.Device.BaudRate <= 0 {
			return fmt.Errorf("device baud_rate must be positive")
		}
	case TransportSimulator:
	default:
		return fmt.Errorf("invalid device transport: %s", c.Device.Transport)
	}

	// three consecutive channels carry r, g and b
	if c.DMX.StartChannel < 1 || c.DMX.StartChannel > 510 {
		return fmt.Errorf("dmx start_channel must be between 1 and 510")
	}

	if c.Animation.FPS <= 0 {
		return fmt.Errorf("animation fps must be positive")
	}

	if c.Animation.MaxDuration <= 0 {
		return fmt.Errorf("animation max_duration must be positive")
	}

	if _, err := ease.Lookup(c.Animation.DefaultEase); err != nil {
		return fmt.Errorf("animation default_ease: %w", err)
	}

	if _, err := color.Parse(c.Toggle.Color); err != nil {
		return fmt.Errorf("toggle color: %w", err)
	}

	if c.API.Listen == "" {
		return fmt.Errorf("api listen address must be set")
	}

	if c.Metrics.FlushInterval <= 0 {
		return fmt.Errorf("metrics flush_interval must be positive")
	}

	return nil
}

// FrameInterval is the time between two animation frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Animation.FPS)
}

// ToggleColor is the parsed toggle.color, white if it does not parse.
func (c *Config) ToggleColor() color.Color {
	tc, err := color.Parse(c.Toggle.Color)
	if err != nil {
		return color.White
	}

	return tc
}

func getDefaultConfigPath() string {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return filepath.Join(configDir, appName, "config.yaml")
	}

	if homeDir := os.Getenv("HOME"); homeDir != "" {
		return filepath.Join(homeDir, ".config", appName, "config.yaml")
	}

	return "./config.yaml"
}

func GetConfigPaths() []string {
	var paths []string

	paths = append(paths, getDefaultConfigPath())

	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		paths = append(paths, filepath.Join(configDir, appName+".yaml"))
	}

	paths = append(paths, "/etc/"+appName+"/config.yaml")
	paths = append(paths, "/usr/local/etc/"+appName+"/config.yaml")
	paths = append(paths, "./configs/config.yaml")

	return paths
}

func FindConfig() (string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return path, nil // fallback to original path
			}
			return absPath, nil
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}

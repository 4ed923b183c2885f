package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Device.Transport != TransportUSB {
		t.Errorf("Expected transport usb, got %s", cfg.Device.Transport)
	}

	if cfg.Device.VendorID != 0x10cf || cfg.Device.ProductID != 0x8062 {
		t.Errorf("Expected device 10cf:8062, got %04x:%04x", cfg.Device.VendorID, cfg.Device.ProductID)
	}

	if cfg.Device.Endpoint != 1 {
		t.Errorf("Expected endpoint 1, got %d", cfg.Device.Endpoint)
	}

	if cfg.Animation.FPS != 30 {
		t.Errorf("Expected fps 30, got %d", cfg.Animation.FPS)
	}

	if cfg.DMX.StartChannel != 1 {
		t.Errorf("Expected start channel 1, got %d", cfg.DMX.StartChannel)
	}

	if cfg.Logging.Level != logging.LevelInfo {
		t.Errorf("Expected log level info, got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		config  *Config
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "unknown transport",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Device.Transport = "carrier-pigeon"

				return cfg
			}(),
			wantErr: true,
			errMsg:  "invalid device transport: carrier-pigeon",
		},
		{
			name: "usb endpoint out of range",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Device.Endpoint = 0

				return cfg
			}(),
			wantErr: true,
			errMsg:  "device endpoint must be between 1 and 15",
		},
		{
			name: "serial baud rate",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Device.Transport = TransportSerial
				cfg.Device.BaudRate = -1

				return cfg
			}(),
			wantErr: true,
			errMsg:  "device baud_rate must be positive",
		},
		{
			name: "simulator needs no device settings",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Device = DeviceConfig{Transport: TransportSimulator}

				return cfg
			}(),
			wantErr: false,
		},
		{
			name: "start channel leaves no room for blue",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.DMX.StartChannel = 511

				return cfg
			}(),
			wantErr: true,
			errMsg:  "dmx start_channel must be between 1 and 510",
		},
		{
			name: "zero fps",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Animation.FPS = 0

				return cfg
			}(),
			wantErr: true,
			errMsg:  "animation fps must be positive",
		},
		{
			name: "zero max duration",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Animation.MaxDuration = 0

				return cfg
			}(),
			wantErr: true,
			errMsg:  "animation max_duration must be positive",
		},
		{
			name: "unknown default ease",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Animation.DefaultEase = "wobbly"

				return cfg
			}(),
			wantErr: true,
			errMsg:  `animation default_ease: unknown ease: "wobbly"`,
		},
		{
			name: "bad toggle color",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Toggle.Color = "white"

				return cfg
			}(),
			wantErr: true,
			errMsg:  `toggle color: invalid hex color: "white"`,
		},
		{
			name: "empty listen address",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.API.Listen = ""

				return cfg
			}(),
			wantErr: true,
			errMsg:  "api listen address must be set",
		},
		{
			name: "zero flush interval",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Metrics.FlushInterval = 0

				return cfg
			}(),
			wantErr: true,
			errMsg:  "metrics flush_interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)

				return
			}

			if tt.wantErr && err.Error() != tt.errMsg {
				t.Errorf("Validate() error = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		validate func(*Config)
		name     string
		yamlData string
		wantErr  bool
	}{
		{
			name: "valid YAML config",
			yamlData: `
device:
  transport: serial
  port: /dev/ttyUSB0
  baud_rate: 250000
dmx:
  start_channel: 4
animation:
  fps: 40
  pace: false
  default_ease: easeInQuad
toggle:
  color: "#FF8800"
logging:
  level: debug
  format: json
`,
			validate: func(cfg *Config) {
				if cfg.Device.Transport != TransportSerial || cfg.Device.Port != "/dev/ttyUSB0" {
					t.Errorf("unexpected device config: %+v", cfg.Device)
				}
				if cfg.Device.BaudRate != 250000 {
					t.Errorf("Expected baud rate 250000, got %d", cfg.Device.BaudRate)
				}
				if cfg.DMX.StartChannel != 4 {
					t.Errorf("Expected start channel 4, got %d", cfg.DMX.StartChannel)
				}
				if cfg.Animation.FPS != 40 || cfg.Animation.Pace {
					t.Errorf("unexpected animation config: %+v", cfg.Animation)
				}
				if cfg.Animation.DefaultEase != "easeInQuad" {
					t.Errorf("Expected default ease easeInQuad, got %s", cfg.Animation.DefaultEase)
				}
				if cfg.Toggle.Color != "#FF8800" {
					t.Errorf("Expected toggle color #FF8800, got %s", cfg.Toggle.Color)
				}
				if cfg.Logging.Level != logging.LevelDebug || cfg.Logging.Format != logging.FormatJSON {
					t.Errorf("unexpected logging config: %+v", cfg.Logging)
				}
				if cfg.Metrics.FlushInterval != time.Minute {
					t.Errorf("unset fields should keep defaults, flush interval = %v", cfg.Metrics.FlushInterval)
				}
			},
		},
		{
			name: "hex device ids",
			yamlData: `
device:
  vendor_id: 0x0403
  product_id: 0x6001
`,
			validate: func(cfg *Config) {
				if cfg.Device.VendorID != 0x0403 || cfg.Device.ProductID != 0x6001 {
					t.Errorf("Expected 0403:6001, got %04x:%04x", cfg.Device.VendorID, cfg.Device.ProductID)
				}
			},
		},
		{
			name: "invalid YAML syntax",
			yamlData: `
animation:
  fps: invalid_number
`,
			wantErr: true,
		},
		{
			name: "invalid config values",
			yamlData: `
animation:
  fps: -1
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(tmpDir, "test_config.yaml")

			err := os.WriteFile(configFile, []byte(tt.yamlData), 0o644)
			if err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadConfig(configFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)

				return
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(cfg)
			}
		})
	}
}

func TestLoadConfigNonExistentFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("LoadConfig() with non-existent file should return default config, got error: %v", err)
	}

	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Error("LoadConfig() with non-existent file should return default config")
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.FPS = 44
	cfg.Device.Transport = TransportSimulator

	configFile := filepath.Join(t.TempDir(), "nested", "saved_config.yaml")

	if err := cfg.SaveConfig(configFile); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	loadedCfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if !reflect.DeepEqual(loadedCfg, cfg) {
		t.Errorf("saved config did not round-trip:\n got %+v\nwant %+v", loadedCfg, cfg)
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.FPS = 25

	if got := cfg.FrameInterval(); got != 40*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 40ms", got)
	}
}

func TestFindConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	chdirForTest(t, tmpDir)

	if err := os.MkdirAll("configs", 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile("configs/config.yaml", []byte("animation:\n  fps: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	foundPath, err := FindConfig()
	if err != nil {
		t.Fatalf("FindConfig() failed: %v", err)
	}

	if !filepath.IsAbs(foundPath) {
		t.Errorf("FindConfig() should return absolute path, got %s", foundPath)
	}

	if filepath.Base(foundPath) != "config.yaml" {
		t.Errorf("FindConfig() should find config.yaml, got %s", filepath.Base(foundPath))
	}
}

func TestFindConfigNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	chdirForTest(t, tmpDir)

	if _, err := FindConfig(); err == nil {
		t.Error("FindConfig() should return error when no config file is found")
	}
}

func TestConfigEnvironmentVariables(t *testing.T) {
	testDir := "/tmp/test_xdg"
	t.Setenv("XDG_CONFIG_HOME", testDir)

	paths := GetConfigPaths()

	expectedPath := filepath.Join(testDir, "dmxd", "config.yaml")
	if len(paths) == 0 || paths[0] != expectedPath {
		t.Errorf("Expected first path to be %s, got %v", expectedPath, paths)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("animation:\n  fps: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)

	w, err := NewWatcher(configFile, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()

	// invalid content is skipped, the following valid write is delivered
	if err := os.WriteFile(configFile, []byte("animation:\n  fps: -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(2 * reloadDebounce)

	if err := os.WriteFile(configFile, []byte("animation:\n  fps: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Animation.FPS != 60 {
			t.Errorf("reloaded fps = %d, want 60", cfg.Animation.FPS)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not deliver a reloaded config")
	}

	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() returned %v", err)
	}
}

func TestToggleColor(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ToggleColor(); got != color.White {
		t.Errorf("ToggleColor() = %v, want white", got)
	}

	cfg.Toggle.Color = "#102030"
	if got := cfg.ToggleColor(); got != color.New(0x10, 0x20, 0x30) {
		t.Errorf("ToggleColor() = %v, want #102030", got)
	}

	cfg.Toggle.Color = "nope"
	if got := cfg.ToggleColor(); got != color.White {
		t.Errorf("ToggleColor() with a bad value = %v, want white", got)
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}

// Command dmxd drives an RGB fixture on a USB DMX512 interface and serves
// color animations over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

const name = "dmxd"

var (
	// These are set by the build system via -ldflags.
	version   = "dev"     // Set via -X main.version=...
	buildTime = "unknown" // Set via -X main.buildTime=...
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	transport  string
	listen     string
	port       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   name,
		Short: "dmxd - DMX512 color animation daemon",
		Long: `dmxd drives an RGB fixture through a USB DMX512 interface.

It fades between colors along named easing curves and exposes
animate, toggle and color endpoints over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s (built: %s)\n", name, version, buildTime))

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Set log level (debug, info, warn, error)")
	flags.StringVar(&opts.transport, "transport", "", "Device transport (usb, serial, simulator)")
	flags.StringVar(&opts.listen, "listen", "", "HTTP API listen address")
	flags.StringVar(&opts.port, "port", "", "Serial port for serial DMX bridges")

	root.AddCommand(
		newRunCmd(opts),
		newServiceCmd(opts, "install", "Install the daemon as a system service"),
		newServiceCmd(opts, "remove", "Remove the daemon service", "uninstall"),
		newServiceCmd(opts, "start", "Start the installed daemon service"),
		newServiceCmd(opts, "stop", "Stop the running daemon service"),
		newServiceCmd(opts, "status", "Show the daemon service status"),
		newConfigCmd(opts),
		newTestCmd(opts),
		newAnimateCmd(opts),
		newToggleCmd(opts),
		newColorCmd(opts),
		newEasesCmd(opts),
	)

	return root
}

// load resolves the config file, applies flag overrides and installs the
// global logger. It returns the path reloads should read from, empty when
// running on defaults.
func (o *options) load() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		if found, err := config.FindConfig(); err == nil {
			path = found
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}

	o.applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}

	logging.SetGlobalLogger(logger)

	return cfg, path, nil
}

func (o *options) applyOverrides(cfg *config.Config) {
	if o.logLevel != "" {
		cfg.Logging.Level = logging.LogLevel(o.logLevel)
	}

	if o.transport != "" {
		cfg.Device.Transport = o.transport
	}

	if o.listen != "" {
		cfg.API.Listen = o.listen
	}

	if o.port != "" {
		cfg.Device.Port = o.port
	}
}

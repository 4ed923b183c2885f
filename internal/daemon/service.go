// Package daemon runs the DMX controller as a long-lived system service: it
// opens the device, serves the HTTP API, and reloads configuration on SIGHUP
// or when the config file changes.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/takama/daemon"

	"github.com/RobertBroersma/dmx-hackathon/internal/animation"
	"github.com/RobertBroersma/dmx-hackathon/internal/api"
	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/controller"
	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
	"github.com/RobertBroersma/dmx-hackathon/internal/observability"
	"github.com/RobertBroersma/dmx-hackathon/internal/transport"
)

// Service owns the device, the controller and the HTTP API for one daemon
// process.
type Service struct {
	daemon.Daemon
	ctx           context.Context
	transport     transport.Transport
	openTransport func(config.DeviceConfig) (transport.Transport, error)
	logger        *logging.Logger
	config        *config.Config
	engine        *animation.Engine
	handler       *controller.Handler
	api           *api.Server
	collector     *observability.MetricsCollector
	metrics       *observability.ApplicationMetrics
	cancel        context.CancelFunc
	stopCh        chan struct{}
	startedAt     time.Time
	configPath    string
	wg            sync.WaitGroup
	mu            sync.RWMutex
	stopOnce      sync.Once
}

// NewService prepares the service. configPath is where reloads read from; an
// empty path disables file watching and makes SIGHUP reload the default
// location.
func NewService(cfg *config.Config, configPath string) (*Service, error) {
	d, err := daemon.New(cfg.Daemon.Name, cfg.Daemon.Description, daemon.SystemDaemon)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	service := &Service{
		Daemon:        d,
		config:        cfg,
		configPath:    configPath,
		openTransport: transport.Open,
		logger:        logging.WithComponent("daemon"),
		ctx:           ctx,
		cancel:        cancel,
		stopCh:        make(chan struct{}),
	}

	return service, nil
}

// Initialize opens the device and builds the pipeline behind the API. A
// device that cannot be opened is fatal.
func (s *Service) Initialize() error {
	cfg := s.Config()

	s.logger.Info("initializing DMX daemon", "transport", cfg.Device.Transport)

	tr, err := s.openTransport(cfg.Device)
	if err != nil {
		return fmt.Errorf("failed to open DMX device: %w", err)
	}

	s.transport = tr

	s.collector = observability.NewMetricsCollector(logging.GetGlobalLogger(), cfg.Metrics.FlushInterval)
	s.metrics = observability.NewApplicationMetrics(s.collector)

	encoder := dmx.NewEncoder(tr)
	encoder.SetObserver(func(t dmx.PacketType) {
		s.metrics.RecordPacket(t.String())
	})

	s.engine = animation.NewEngine(cfg.Animation.FPS, cfg.Animation.Pace)

	s.handler = controller.NewHandler(controller.Config{
		StartChannel: cfg.DMX.StartChannel,
		ToggleColor:  cfg.ToggleColor(),
		MaxDuration:  cfg.Animation.MaxDuration,
	}, encoder, s.engine)
	s.handler.SetRecorder(s.metrics)

	s.api = api.NewServer(s.handler, s.metrics)

	s.logger.Info("daemon initialized", "device", tr.Name(), "fps", s.engine.FPS())

	return nil
}

// Start initializes the pipeline and launches the API, signal handling,
// config watching and the uptime gauge in the background.
func (s *Service) Start() error {
	s.logger.Info("starting DMX daemon")

	if err := s.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	s.startedAt = time.Now()

	s.wg.Add(1)
	go s.runAPI()

	s.wg.Add(1)
	go s.handleSignals()

	if s.configPath != "" {
		s.wg.Add(1)
		go s.watchConfig()
	}

	if interval := s.Config().Metrics.FlushInterval; interval > 0 {
		s.wg.Add(1)
		go s.runUptime(interval)
	}

	s.logger.Info("daemon started", "listen", s.Config().API.Listen)

	return nil
}

// Shutdown asks a running service to stop. It is safe to call more than once.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Stop cancels background work, waits for it, then closes the device and
// flushes metrics.
func (s *Service) Stop() error {
	s.logger.Info("stopping DMX daemon")

	s.Shutdown()
	s.cancel()

	s.wg.Wait()

	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			s.logger.Warn("failed to close DMX device", "error", err)
		}
	}

	if s.collector != nil {
		s.collector.Close()
	}

	s.logger.Info("daemon stopped")

	return nil
}

// Run starts the service and blocks until it is asked to stop.
func (s *Service) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	<-s.stopCh

	return s.Stop()
}

// Handler is the controller behind the API, available after Initialize.
func (s *Service) Handler() *controller.Handler {
	return s.handler
}

// Metrics returns the application metrics, available after Initialize.
func (s *Service) Metrics() *observability.ApplicationMetrics {
	return s.metrics
}

// Config returns the configuration currently in effect.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.config
}

func (s *Service) runAPI() {
	defer s.wg.Done()

	if err := s.api.ListenAndServe(s.ctx, s.Config().API.Listen); err != nil {
		s.logger.Error("HTTP API stopped", "error", err)
		s.Shutdown()
	}
}

func (s *Service) runUptime(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.metrics.RecordDaemonUptime(time.Since(s.startedAt))
		}
	}
}

func (s *Service) watchConfig() {
	defer s.wg.Done()

	w, err := config.NewWatcher(s.configPath, func(cfg *config.Config) {
		began := time.Now()
		s.applyConfig(cfg)
		s.metrics.RecordConfigReload(true, time.Since(began))
	})
	if err != nil {
		s.logger.Warn("config file will not be watched", "path", s.configPath, "error", err)
		return
	}

	if err := w.Run(s.ctx); err != nil {
		s.logger.Warn("config watcher stopped", "error", err)
	}
}

func (s *Service) handleSignals() {
	defer s.wg.Done()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-s.ctx.Done():
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				s.logger.Info("received signal, shutting down", "signal", sig.String())
				s.Shutdown()

				return
			case syscall.SIGHUP:
				s.logger.Info("received SIGHUP, reloading configuration")

				if err := s.reloadConfig(); err != nil {
					s.logger.Warn("failed to reload config", "error", err)
				}
			}
		}
	}
}

func (s *Service) reloadConfig() error {
	began := time.Now()

	newConfig, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.metrics.RecordConfigReload(false, time.Since(began))
		return fmt.Errorf("failed to load config: %w", err)
	}

	s.applyConfig(newConfig)
	s.metrics.RecordConfigReload(true, time.Since(began))

	return nil
}

// applyConfig swaps in settings that can change at runtime. Device, API and
// start channel settings only take effect after a restart.
func (s *Service) applyConfig(newConfig *config.Config) {
	s.mu.Lock()
	old := s.config
	s.config = newConfig
	s.mu.Unlock()

	s.engine.Configure(newConfig.Animation.FPS, newConfig.Animation.Pace)
	s.handler.SetToggleColor(newConfig.ToggleColor())
	s.handler.SetMaxDuration(newConfig.Animation.MaxDuration)
	logging.GetGlobalLogger().SetLevel(newConfig.Logging.Level)

	if old.Device != newConfig.Device || old.API != newConfig.API || old.DMX != newConfig.DMX {
		s.logger.Warn("restart the daemon to apply device or api changes")
	}

	s.logger.Info("configuration reloaded",
		"fps", newConfig.Animation.FPS,
		"pace", newConfig.Animation.Pace,
		"toggle_color", newConfig.Toggle.Color)
}

// Install registers the service so the system manager runs "dmxd run".
func (s *Service) Install() (string, error) {
	return s.Daemon.Install("run")
}

// Remove unregisters the service.
func (s *Service) Remove() (string, error) {
	return s.Daemon.Remove()
}

// Status reports the service state from the system manager.
func (s *Service) Status() (string, error) {
	return s.Daemon.Status()
}

// StartService asks the system manager to start the installed service.
func (s *Service) StartService() (string, error) {
	return s.Daemon.Start()
}

// StopService asks the system manager to stop the installed service.
func (s *Service) StopService() (string, error) {
	return s.Daemon.Stop()
}

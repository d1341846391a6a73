package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/pagesim/config"
	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/monitoring"
	"github.com/sarchlab/pagesim/process"
	"github.com/sarchlab/pagesim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg         config.Config
	logger      *slog.Logger
	debug       io.Writer
	monitorOn   bool
	openBrowser bool
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithConfig sets the configuration. A non-zero monitor port turns on
// monitoring.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	if cfg.MonitorPort != 0 {
		b.monitorOn = true
	}

	return b
}

// WithLogger sets the logger shared by every part of the simulation.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithDebugWriter sets where address spaces print their debug dumps when
// the configuration enables debug mode.
func (b Builder) WithDebugWriter(w io.Writer) Builder {
	b.debug = w
	return b
}

// WithMonitoring serves the monitor, on the configured port or a random one.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithOpenBrowser opens the monitor in a browser once it is served.
func (b Builder) WithOpenBrowser() Builder {
	b.openBrowser = true
	return b
}

func (b Builder) parametersMustBeValid() error {
	if err := b.cfg.Validate(); err != nil {
		return err
	}

	if b.cfg.Debug && b.debug == nil {
		return errors.New("debug mode needs a debug writer")
	}

	return nil
}

// Build builds the simulation. The RAM and swap devices are shared by every
// process of the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:     xid.New().String(),
		cfg:    b.cfg,
		logger: b.logger,
		debug:  b.debug,
		lock:   &sync.Mutex{},
		queue:  process.NewReadyQueue(b.cfg.QueueSize),
	}

	s.ram = storage.NewSyncDevice(
		storage.NewStorage("RAM", b.cfg.RAMSize, b.cfg.PageSize))
	for i, size := range b.cfg.SwapSizes {
		s.swaps = append(s.swaps, storage.NewSyncDevice(
			storage.NewStorage(fmt.Sprintf("Swap%d", i), size, b.cfg.PageSize)))
	}

	if b.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logHook = tracing.NewLogHook(b.logger)
	}

	if b.cfg.RecordPath != "" {
		recorder, err := tracing.NewRecorder(b.cfg.RecordPath)
		if err != nil {
			return nil, err
		}

		s.recorder = recorder
		s.memTracer = tracing.NewMemTracer(recorder)
	}

	if b.monitorOn {
		if err := b.startMonitor(s); err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}

func (b Builder) startMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor().
		WithLogger(b.logger).
		WithPortNumber(b.cfg.MonitorPort).
		WithOpenBrowser(b.openBrowser)

	s.monitor.RegisterDevice(s.ram)
	for _, swap := range s.swaps {
		s.monitor.RegisterDevice(swap)
	}

	_, err := s.monitor.StartServer()

	return err
}

// Package simulation wires processes, their address spaces, and the shared
// memory devices into a runnable simulation.
package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/config"
	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/mem/vm/addrspace"
	"github.com/sarchlab/pagesim/monitoring"
	"github.com/sarchlab/pagesim/process"
	"github.com/sarchlab/pagesim/tracing"
)

// A Simulation owns the shared RAM and swap devices and the processes that
// run against them.
type Simulation struct {
	id     string
	cfg    config.Config
	logger *slog.Logger
	debug  io.Writer

	lock  sync.Locker
	ram   storage.Device
	swaps []storage.Device

	queue     *process.ReadyQueue
	processes []*process.Process
	nextPID   int

	recorder  tracing.Recorder
	memTracer *tracing.MemTracer
	logHook   *tracing.LogHook
	monitor   *monitoring.Monitor
}

// ID returns the unique id of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// RAM returns the shared physical memory.
func (s *Simulation) RAM() storage.Device {
	return s.ram
}

// Swaps returns the shared swap devices.
func (s *Simulation) Swaps() []storage.Device {
	return s.swaps
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetRecorder returns the event recorder, or nil if recording is off.
func (s *Simulation) GetRecorder() tracing.Recorder {
	return s.recorder
}

// Processes returns the processes in the order they were added.
func (s *Simulation) Processes() []*process.Process {
	return s.processes
}

// NewAddressSpace builds an address space over the shared devices and
// attaches the simulation's hooks to it.
func (s *Simulation) NewAddressSpace(name string) *addrspace.AddressSpace {
	b := addrspace.MakeBuilder().
		WithPageSize(s.cfg.PageSize).
		WithVMSize(s.cfg.VMSize).
		WithSymbolTableSize(s.cfg.SymbolTableSize).
		WithRAM(s.ram).
		WithSwap(s.swaps...).
		WithLock(s.lock).
		WithLogger(s.logger)
	if s.cfg.Debug {
		b = b.WithDebugWriter(s.debug)
	}

	as := b.Build(name)

	if s.memTracer != nil {
		s.memTracer.Trace(as, as.MMU())
	}

	if s.logHook != nil {
		as.AcceptHook(s.logHook)
		as.MMU().AcceptHook(s.logHook)
	}

	if s.monitor != nil {
		s.monitor.RegisterAddressSpace(as)
	}

	return as
}

// LoadProcess reads a program file and queues it as a new process. A
// program that fails to parse gets neither a pid nor an address space.
func (s *Simulation) LoadProcess(path string) (*process.Process, error) {
	prog, err := process.ReadProgram(path)
	if err != nil {
		return nil, err
	}

	return s.AddProcess(prog.Name, prog.Priority, prog.Code)
}

// AddProcess queues a process running code.
func (s *Simulation) AddProcess(
	name string,
	priority int,
	code []process.Instruction,
) (*process.Process, error) {
	if s.queue.Full() {
		return nil, errors.Wrapf(process.ErrQueueFull, "adding %s", name)
	}

	pid := s.nextPID
	s.nextPID++

	p := &process.Process{
		PID:      pid,
		Name:     name,
		Priority: priority,
		Code:     code,
		Mem:      s.NewAddressSpace(fmt.Sprintf("P%d", pid)),
	}

	if err := s.queue.Enqueue(p); err != nil {
		if s.monitor != nil {
			s.monitor.UnregisterAddressSpace(p.Mem)
		}

		_ = p.Mem.Close()

		return nil, err
	}

	s.processes = append(s.processes, p)
	s.logger.Info("process loaded", "pid", p.PID, "name", p.Name,
		"priority", p.Priority, "instructions", len(p.Code))

	return p, nil
}

// Run executes the queued processes until all of them end or ctx is done.
func (s *Simulation) Run(ctx context.Context) ([]process.Result, error) {
	runner := process.NewRunner(s.queue, s.cfg.TimeSlice).
		WithLogger(s.logger)
	if s.monitor != nil {
		runner = runner.WithMonitor(s.monitor)
	}

	return runner.Run(ctx)
}

// Terminate flushes recorded events and stops the monitor.
func (s *Simulation) Terminate() {
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.logger.Error("closing recorder", "err", err)
		}
	}

	if s.monitor != nil {
		if err := s.monitor.StopServer(); err != nil {
			s.logger.Error("stopping monitor", "err", err)
		}
	}
}

package process

import (
	"context"
	"io"
	"log/slog"

	"github.com/sarchlab/pagesim/monitoring"
)

// Result is the outcome of one process.
type Result struct {
	PID      int
	Name     string
	Executed int
	Err      error
}

// A Runner executes queued processes round-robin, at most TimeSlice
// instructions at a time. A failing instruction ends its process only.
type Runner struct {
	queue     *ReadyQueue
	timeSlice int
	logger    *slog.Logger
	monitor   *monitoring.Monitor

	bars map[int]*monitoring.ProgressBar
}

// NewRunner creates a runner over a ready queue.
func NewRunner(queue *ReadyQueue, timeSlice int) *Runner {
	if timeSlice <= 0 {
		timeSlice = 1
	}

	return &Runner{
		queue:     queue,
		timeSlice: timeSlice,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		bars:      make(map[int]*monitoring.ProgressBar),
	}
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// WithMonitor shows a progress bar per process on the monitor.
func (r *Runner) WithMonitor(m *monitoring.Monitor) *Runner {
	r.monitor = m
	return r
}

// Run executes until the queue is empty or ctx is done. Every process ends
// with a result and its memory released, in completion order. When ctx is
// done, the running process and all queued ones end with ctx's error, which
// Run also returns.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	var results []Result

	for !r.queue.Empty() {
		p := r.queue.Dequeue()
		bar := r.progressBar(p)

		r.logger.Debug("dispatch", "pid", p.PID, "pc", p.PC)

		var err error
		for n := 0; n < r.timeSlice && !p.Finished(); n++ {
			if ctxErr := ctx.Err(); ctxErr != nil {
				results = append(results, r.finish(p, ctxErr))
				return r.drain(results, ctxErr), ctxErr
			}

			err = p.Step()
			if bar != nil {
				bar.Update(uint64(p.PC), p.Mem.Stats())
			}

			if err != nil {
				break
			}
		}

		if err == nil && !p.Finished() {
			if qErr := r.queue.Enqueue(p); qErr != nil {
				results = append(results, r.finish(p, qErr))
			}

			continue
		}

		results = append(results, r.finish(p, err))
	}

	return results, nil
}

// drain ends every queued process with err.
func (r *Runner) drain(results []Result, err error) []Result {
	for p := r.queue.Dequeue(); p != nil; p = r.queue.Dequeue() {
		results = append(results, r.finish(p, err))
	}

	return results
}

func (r *Runner) finish(p *Process, err error) Result {
	if err != nil {
		r.logger.Warn("process aborted", "pid", p.PID, "name", p.Name,
			"err", err)
	} else {
		r.logger.Info("process finished", "pid", p.PID, "name", p.Name)
	}

	if closeErr := p.Mem.Close(); closeErr != nil {
		r.logger.Error("releasing memory", "pid", p.PID, "err", closeErr)
	}

	if bar, ok := r.bars[p.PID]; ok {
		r.monitor.CompleteProgressBar(bar)
		delete(r.bars, p.PID)
	}

	return Result{PID: p.PID, Name: p.Name, Executed: p.PC, Err: err}
}

func (r *Runner) progressBar(p *Process) *monitoring.ProgressBar {
	if r.monitor == nil {
		return nil
	}

	bar, ok := r.bars[p.PID]
	if !ok {
		bar = r.monitor.CreateProgressBar(p.PID, p.Name, uint64(len(p.Code)))
		r.bars[p.PID] = bar
	}

	return bar
}

package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/pagesim/mem/vm/mmu"
)

// A ProgressBar follows one running process: how many of its instructions
// have executed and how much paging they caused.
type ProgressBar struct {
	mu    sync.Mutex
	state ProgressState
}

// ProgressState is a copy of a progress bar, as served over HTTP.
type ProgressState struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Executed  uint64    `json:"executed"`
	Faults    uint64    `json:"faults"`
	Evictions uint64    `json:"evictions"`
	SwapIns   uint64    `json:"swap_ins"`
}

// Update records the number of executed instructions and the paging counters
// of the process's MMU.
func (b *ProgressBar) Update(executed uint64, stats mmu.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Executed = executed
	b.state.Faults = stats.Faults
	b.state.Evictions = stats.Evictions
	b.state.SwapIns = stats.SwapIns
}

// State returns a copy of the bar.
func (b *ProgressBar) State() ProgressState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

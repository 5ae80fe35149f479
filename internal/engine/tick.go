// Package engine provides the city simulation kernel and the tick loop
// that drives it in wall-clock time.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TickSchedule defines when the slower callbacks run. One tick is one month.
const (
	TicksPerQuarter = 3
	TicksPerYear    = 12
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval (default 1 second)

	// Callbacks for each tick layer, set during setup.
	OnTick    func(tick uint64) // Every tick (sim-month)
	OnQuarter func(tick uint64) // Every 3 ticks
	OnYear    func(tick uint64) // Every 12 ticks

	mu       sync.Mutex
	speed    float64 // Multiplier: 1.0 = real-time, 0 = paused
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1.0,
		stop:     make(chan struct{}),
	}
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier; 0 pauses.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
}

func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for !e.stopped() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			if !e.sleep(100 * time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target && !e.sleep(target-elapsed) {
			break
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// sleep waits for d or until Stop; it reports false when stopped.
func (e *Engine) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-e.stop:
		return false
	}
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// Stop halts the simulation loop. It is safe to call more than once, and a
// Stop before Run makes Run return immediately.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	// Quarterly: autosave.
	if e.Tick%TicksPerQuarter == 0 && e.OnQuarter != nil {
		e.OnQuarter(e.Tick)
	}

	// Yearly: history pruning and the annual report.
	if e.Tick%TicksPerYear == 0 && e.OnYear != nil {
		e.OnYear(e.Tick)
	}
}

// Package pump services the platform message loop that keeps a parented
// foreign surface responsive, on platforms whose loop is not otherwise
// driven while our surface is embedded.
package pump

import (
	"time"

	"github.com/kestrelview/websurface/engine"
	"github.com/kestrelview/websurface/internal/sched"
)

// Interval is the pump cadence, roughly one render frame.
const Interval = 16 * time.Millisecond

// Pump ticks the engine's event pump while a surface is ready. All methods
// run on the owning goroutine.
type Pump struct {
	scheduler sched.Scheduler
	eng       engine.Engine
	timer     sched.Timer
}

// New creates a stopped pump.
func New(scheduler sched.Scheduler, eng engine.Engine) *Pump {
	return &Pump{scheduler: scheduler, eng: eng}
}

// Start begins ticking. Starting a running pump is a no-op; ticks never
// stack.
func (p *Pump) Start() {
	if p.timer != nil {
		return
	}
	p.timer = p.scheduler.Every(Interval, p.eng.PumpEvents)
}

// Stop ends ticking. Stopping a stopped pump is a no-op.
func (p *Pump) Stop() {
	if p.timer == nil {
		return
	}
	p.timer.Stop()
	p.timer = nil
}

// Running reports whether the pump is ticking.
func (p *Pump) Running() bool {
	return p.timer != nil
}

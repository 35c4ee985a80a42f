package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "chronos/internal/log"
)

// DefaultRefresh repaints the "now" display once a second.
const DefaultRefresh = "@every 1s"

// Refresher calls a callback with the current time on a cron schedule.
// It only drives cosmetic display state; stopping it has no effect on
// stored data.
type Refresher struct {
	clock Clock
	fn    func(now time.Time)
	sched *cron.Cron
	spec  string

	mu      sync.Mutex
	started bool
	last    time.Time
}

// NewRefresher validates spec (standard cron syntax or a descriptor such as
// "@every 1s") and prepares a refresher. Nothing runs until Start.
func NewRefresher(spec string, clk Clock, fn func(now time.Time)) (*Refresher, error) {
	if fn == nil {
		return nil, errors.New("refresher: callback is nil")
	}
	if spec == "" {
		spec = DefaultRefresh
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("refresher: invalid schedule %q: %w", spec, err)
	}
	if clk == nil {
		clk = System{}
	}

	r := &Refresher{
		clock: clk,
		fn:    fn,
		spec:  spec,
		sched: cron.New(),
	}
	if _, err := r.sched.AddFunc(spec, r.Tick); err != nil {
		return nil, fmt.Errorf("refresher: schedule %q: %w", spec, err)
	}
	return r, nil
}

// Tick runs one refresh synchronously.
func (r *Refresher) Tick() {
	now := r.clock.Now()
	r.fn(now)

	r.mu.Lock()
	r.last = now
	r.mu.Unlock()
}

// Last returns the time passed to the most recent refresh.
func (r *Refresher) Last() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Start paints once immediately and then follows the schedule.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.Tick()
	r.sched.Start()
	appLog.Debug("display refresher started", "schedule", r.spec)
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	<-r.sched.Stop().Done()
	appLog.Debug("display refresher stopped", "schedule", r.spec)
}

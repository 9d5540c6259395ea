// Package monitor runs a tracking cycle on a cron schedule.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Cycle is one monitoring pass: fetch new transfers, alert, rescore.
type Cycle func(ctx context.Context) error

// Monitor fires its cycle once at start and then on every schedule tick. A tick that
// lands while the previous cycle is still running is skipped.
type Monitor struct {
	schedule string
	cycle    Cycle

	mu      sync.Mutex
	runs    int
	failed  int
	lastErr error
	lastRun time.Time
}

func New(schedule string, cycle Cycle) *Monitor {
	return &Monitor{schedule: schedule, cycle: cycle}
}

// Stats reports how many cycles ran and how many of them failed.
type Stats struct {
	Runs    int       `json:"runs"`
	Failed  int       `json:"failed"`
	LastRun time.Time `json:"last_run"`
	LastErr error     `json:"-"`
}

func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Runs: m.runs, Failed: m.failed, LastRun: m.lastRun, LastErr: m.lastErr}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.schedule, func() { m.runOnce(ctx) }); err != nil {
		return fmt.Errorf("monitor schedule %q: %w", m.schedule, err)
	}

	log.Info().Str("schedule", m.schedule).Msg("👀 monitor started")
	m.runOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (m *Monitor) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := m.cycle(ctx)

	m.mu.Lock()
	m.runs++
	m.lastRun = start
	m.lastErr = err
	if err != nil {
		m.failed++
	}
	runs := m.runs
	m.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Int("cycle", runs).Msg("❌ monitor cycle failed")
		return
	}
	log.Info().Int("cycle", runs).Dur("took", time.Since(start).Round(time.Millisecond)).Msg("🔁 monitor cycle done")
}

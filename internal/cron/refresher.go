// Package cron re-runs package provisioning on a schedule so a long-lived
// install keeps tracking a moving version tag.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// RunFunc is one refresh pass.
type RunFunc func(ctx context.Context) error

// Status describes the most recent refresh pass.
type Status struct {
	LastRunAt time.Time
	LastError error
	Runs      int
}

// Refresher calls a RunFunc on a cron schedule.
type Refresher struct {
	expr     string
	schedule robfigcron.Schedule
	run      RunFunc

	mu     sync.Mutex
	status Status
}

// ParseSchedule accepts standard 5-field cron expressions and descriptors
// such as @daily or @every 6h. An optional TZ=/CRON_TZ= prefix selects the
// time zone.
func ParseSchedule(expr string) (robfigcron.Schedule, error) {
	parser := robfigcron.NewParser(
		robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
	)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", expr, err)
	}
	return sched, nil
}

// NewRefresher returns a Refresher running run on expr.
func NewRefresher(expr string, run RunFunc) (*Refresher, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	return &Refresher{expr: expr, schedule: sched, run: run}, nil
}

// Next returns the first scheduled run after t.
func (r *Refresher) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

// Status returns a snapshot of the last refresh pass.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start arms the schedule and blocks until ctx is cancelled. Overlapping
// passes are skipped rather than queued.
func (r *Refresher) Start(ctx context.Context) error {
	c := robfigcron.New(robfigcron.WithChain(robfigcron.SkipIfStillRunning(robfigcron.DiscardLogger)))
	c.Schedule(r.schedule, robfigcron.FuncJob(func() { r.RunOnce(ctx) }))
	c.Start()
	slog.Info("refresh: scheduled", "schedule", r.expr, "next", r.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce performs one pass immediately and records its outcome.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := r.run(ctx)

	r.mu.Lock()
	r.status.LastRunAt = start
	r.status.LastError = err
	r.status.Runs++
	r.mu.Unlock()

	if err != nil {
		slog.Error("refresh: pass failed", "err", err, "took", time.Since(start))
		return err
	}
	slog.Info("refresh: pass done", "took", time.Since(start))
	return nil
}

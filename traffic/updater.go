package traffic

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ttpr0/go-hybrid-routing/attr"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/metrics"
	"golang.org/x/exp/slog"
)

var ErrAlreadyRunning = errors.New("traffic updater is already running")

// Persists live speeds for mapped edges.
type SpeedWriter interface {
	ApplySpeeds(ctx context.Context, samples []graph.SpeedSample) (int64, error)
}

type UpdaterOptions struct {
	Interval   time.Duration
	FloorSpeed float64
}

func DefaultUpdaterOptions() UpdaterOptions {
	return UpdaterOptions{
		Interval:   120 * time.Second,
		FloorSpeed: attr.FLOOR_SPEED,
	}
}

type CycleReport struct {
	ID       string        `json:"id"`
	Samples  int           `json:"samples"`
	Clamped  int           `json:"clamped"`
	Updated  int           `json:"updated"`
	AvgSpeed float64       `json:"avg_speed"`
	Duration time.Duration `json:"duration"`
}

//*******************************************
// updater
//*******************************************

// Updater periodically pulls live speeds and re-weights the mapped edges.
// Cycles never overlap.
type Updater struct {
	graph   *graph.Graph
	feed    Feed
	writer  SpeedWriter
	options UpdaterOptions
	metrics *metrics.Metrics

	cycle_mu sync.Mutex
	running  atomic.Bool
}

// writer and m may be nil.
func NewUpdater(g *graph.Graph, feed Feed, writer SpeedWriter, options UpdaterOptions, m *metrics.Metrics) *Updater {
	if options.FloorSpeed <= 0 {
		options.FloorSpeed = attr.FLOOR_SPEED
	}
	return &Updater{
		graph:   g,
		feed:    feed,
		writer:  writer,
		options: options,
		metrics: m,
	}
}

// Runs update cycles until ctx is cancelled. Failed cycles are logged and the
// loop waits for the next interval.
func (self *Updater) Run(ctx context.Context) error {
	if !self.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer self.running.Store(false)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		self.runSafeCycle(ctx)
		timer.Reset(self.options.Interval)
	}
}

// Runs one cycle and turns a panic into a failed cycle so the loop survives.
func (self *Updater) runSafeCycle(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("traffic cycle panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			self.metrics.ObserveCycle("failed", 0, 0, 0, time.Since(start))
		}
	}()
	self.RunCycle(ctx)
}

// Executes a single update cycle: fetch, clamp, persist, swap in-memory costs.
func (self *Updater) RunCycle(ctx context.Context) (CycleReport, error) {
	self.cycle_mu.Lock()
	defer self.cycle_mu.Unlock()

	start := time.Now()
	report := CycleReport{ID: uuid.NewString()}
	logger := slog.With("cycle", report.ID)

	samples, err := self.feed.FetchSegmentSpeeds(ctx)
	if err != nil {
		report.Duration = time.Since(start)
		outcome := "failed"
		if errors.Is(err, ErrEmptyFeed) {
			outcome = "skipped"
		}
		logger.Warn("traffic cycle skipped", "error", err)
		self.metrics.ObserveCycle(outcome, 0, 0, 0, report.Duration)
		return report, err
	}
	report.Samples = len(samples)
	report.Clamped = ClampSpeeds(samples, self.options.FloorSpeed)

	if self.writer != nil {
		if _, err := self.writer.ApplySpeeds(ctx, samples); err != nil {
			report.Duration = time.Since(start)
			logger.Error("traffic cycle failed to persist speeds", "error", err)
			self.metrics.ObserveCycle("failed", 0, 0, 0, report.Duration)
			return report, err
		}
	}
	applied := self.graph.ApplySpeeds(samples)
	report.Updated = applied.Updated
	report.AvgSpeed = applied.AvgSpeed
	report.Duration = time.Since(start)

	self.metrics.ObserveCycle("ok", report.Updated, report.Clamped, report.AvgSpeed, report.Duration)
	logger.Info("traffic cycle finished",
		"samples", report.Samples,
		"clamped", report.Clamped,
		"updated", report.Updated,
		"avg_speed", report.AvgSpeed,
		"duration", report.Duration,
	)
	return report, nil
}

// Raises non-positive speeds to the floor speed in place. Returns the number
// of clamped samples.
func ClampSpeeds(samples []graph.SpeedSample, floor float64) int {
	clamped := 0
	for i := range samples {
		if !(samples[i].Speed > 0) {
			samples[i].Speed = floor
			clamped += 1
		}
	}
	return clamped
}

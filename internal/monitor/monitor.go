// Package monitor keeps the "is the system watering" status current.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/metrics"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/robfig/cron/v3"
)

// DefaultSpec re-evaluates the status once a minute.
const DefaultSpec = "@every 1m"

// Source provides the schedules to evaluate.
type Source interface {
	List() []models.Schedule
}

// Status is the outcome of one evaluation.
type Status struct {
	Watering  bool      `json:"watering"`
	CheckedAt time.Time `json:"checked_at"`
}

// Label is the status shown on the dashboard.
func (s Status) Label() string {
	if s.Watering {
		return "watering"
	}
	return "offline"
}

// Monitor evaluates irrigation.IsWatering on a cron tick and whenever schedules change.
type Monitor struct {
	src  Source
	spec string
	log  *slog.Logger
	now  func() time.Time
	cron *cron.Cron

	// evalMu orders evaluations so an older collection never overwrites a newer result.
	evalMu sync.Mutex

	mu      sync.RWMutex
	status  Status
	checked bool
}

// New returns a monitor over src. An empty spec means DefaultSpec.
func New(src Source, spec string, logger *slog.Logger) *Monitor {
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		src:  src,
		spec: spec,
		log:  logger,
		now:  time.Now,
		cron: cron.New(),
	}
}

// Start runs an initial check and schedules the periodic one.
func (m *Monitor) Start() error {
	m.Check()
	if _, err := m.cron.AddFunc(m.spec, func() { m.Check() }); err != nil {
		return err
	}
	m.cron.Start()
	m.log.Info("status monitor started", "spec", m.spec)
	return nil
}

// Stop halts the cron and returns a context that is done once a running check finishes.
func (m *Monitor) Stop() context.Context {
	return m.cron.Stop()
}

// Check evaluates the current schedules from the source.
func (m *Monitor) Check() Status {
	m.evalMu.Lock()
	defer m.evalMu.Unlock()
	return m.evaluate(m.src.List())
}

// Evaluate evaluates the given schedules. It can be passed directly to store.Subscribe.
func (m *Monitor) Evaluate(schedules []models.Schedule) Status {
	m.evalMu.Lock()
	defer m.evalMu.Unlock()
	return m.evaluate(schedules)
}

func (m *Monitor) evaluate(schedules []models.Schedule) Status {
	now := m.now()
	next := Status{Watering: irrigation.IsWatering(schedules, now), CheckedAt: now}

	m.mu.Lock()
	changed := !m.checked || m.status.Watering != next.Watering
	m.status = next
	m.checked = true
	m.mu.Unlock()

	metrics.SetWatering(next.Watering)
	if changed {
		m.log.Info("system status changed", "status", next.Label(), "schedules", len(schedules))
	}
	return next
}

// Status returns the latest evaluation.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// OnChange adapts Evaluate to a subscriber callback.
func (m *Monitor) OnChange(schedules []models.Schedule) {
	m.Evaluate(schedules)
}

// Package hibernate implements the memory-pressure-driven tab
// hibernator described in spec §4.L: a MemoryBudget drives pressure
// levels, pressure drives a candidate policy, and hibernation itself
// is a small state machine with a point-in-time snapshot.
//
// New relative to the teacher, a single-tab desktop shell with no tab
// model and no memory monitor at all. The counter/gauge shape is
// grounded on EdgeComet's cachedaemon/metrics.PrometheusMetrics
// (CounterVec/GaugeVec under a namespace+subsystem, registered against
// a private prometheus.Registry rather than the global one).
package hibernate

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Pressure is the monitor's coarse read on how full the memory budget is.
type Pressure int

const (
	PressureNone Pressure = iota
	PressureModerate
	PressureCritical
)

func (p Pressure) String() string {
	switch p {
	case PressureNone:
		return "none"
	case PressureModerate:
		return "moderate"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MemoryBudget caps memory use overall and per concern. All fields are
// in bytes.
type MemoryBudget struct {
	Total       uint64
	PerTab      uint64
	DOM         uint64
	JSHeap      uint64
	LayoutCache uint64
	GPU         uint64
}

// PressureFor computes the pressure level for a given total memory
// usage against b.Total: None below 50%, Moderate 50-80%, Critical
// above 80%.
func (b MemoryBudget) PressureFor(usedTotal uint64) Pressure {
	if b.Total == 0 {
		return PressureNone
	}
	ratio := float64(usedTotal) / float64(b.Total)
	switch {
	case ratio > 0.8:
		return PressureCritical
	case ratio >= 0.5:
		return PressureModerate
	default:
		return PressureNone
	}
}

// State is a tab's position in the hibernation state machine.
type State int

const (
	Active State = iota
	Idle
	Hibernating
	Hibernated
	Restoring
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Idle:
		return "idle"
	case Hibernating:
		return "hibernating"
	case Hibernated:
		return "hibernated"
	case Restoring:
		return "restoring"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyHibernated is returned by Hibernate on a tab that is
	// already Hibernating or Hibernated.
	ErrAlreadyHibernated = errors.New("hibernate: tab is already hibernated")
	// ErrNotHibernated is returned by Restore on a tab that isn't
	// Hibernated.
	ErrNotHibernated = errors.New("hibernate: tab is not hibernated")
	// ErrNoSnapshot is returned by Restore when a Hibernated tab
	// somehow carries no snapshot — an internal-invariant failure.
	ErrNoSnapshot = errors.New("hibernate: hibernated tab has no snapshot")
	// ErrTabNotFound is returned by any operation addressing an
	// unregistered tab id.
	ErrTabNotFound = errors.New("hibernate: tab not found")
)

// Snapshot captures everything restore needs to rehydrate a tab: the
// navigable identity plus the volatile UI state a fresh navigation
// can't reconstruct on its own.
type Snapshot struct {
	URL        string
	Title      string
	ScrollX    float64
	ScrollY    float64
	FormValues map[string]string
}

// Tab tracks one tab's hibernation-relevant state.
type Tab struct {
	ID          uint64
	state       State
	LastActive  time.Time
	IsAudible   bool
	IsPinned    bool
	MemoryBytes uint64
	snapshot    *Snapshot
}

func (t *Tab) State() State { return t.state }

// Policy controls when an idle, non-audible, non-pinned tab becomes a
// hibernation candidate.
type Policy struct {
	// IdleThreshold is the base duration a tab must sit Idle before it
	// becomes a candidate under PressureNone; higher pressure shortens
	// it (see effectiveIdleThreshold).
	IdleThreshold time.Duration
	// AllowAudible, if true, permits hibernating an audible tab.
	AllowAudible bool
}

// DefaultPolicy matches spec.md's stated defaults.
func DefaultPolicy() Policy {
	return Policy{IdleThreshold: 15 * time.Minute}
}

// effectiveIdleThreshold shortens the idle threshold under pressure:
// halved at Moderate, fixed at 30s at Critical.
func (p Policy) effectiveIdleThreshold(pressure Pressure) time.Duration {
	switch pressure {
	case PressureCritical:
		return 30 * time.Second
	case PressureModerate:
		return p.IdleThreshold / 2
	default:
		return p.IdleThreshold
	}
}

// Candidate reports whether t is eligible for hibernation under the
// current pressure: idle longer than the (pressure-adjusted)
// threshold, not audible (unless the policy allows it), and not
// pinned.
func (p Policy) Candidate(t *Tab, pressure Pressure, now time.Time) bool {
	if t.state != Idle {
		return false
	}
	if t.IsPinned {
		return false
	}
	if t.IsAudible && !p.AllowAudible {
		return false
	}
	threshold := p.effectiveIdleThreshold(pressure)
	return now.Sub(t.LastActive) >= threshold
}

// Stats are monotonic lifetime counters, mirrored into Prometheus
// gauges/counters for external scraping.
type Stats struct {
	Hibernated         uint64
	Restored           uint64
	MemoryFreedBytes   uint64
	FailedHibernations uint64
}

// Monitor owns the budget, policy, tab registry, and lifetime
// counters for the hibernation subsystem.
type Monitor struct {
	budget MemoryBudget
	policy Policy
	tabs   map[uint64]*Tab
	stats  Stats
	log    *zap.Logger

	hibernatedTotal  prometheus.Counter
	restoredTotal    prometheus.Counter
	memoryFreedTotal prometheus.Counter
	failedTotal      prometheus.Counter
	pressureGauge    prometheus.Gauge
	tabStateGauge    *prometheus.GaugeVec
}

// New builds a Monitor. A nil logger defaults to a no-op logger. The
// Prometheus collectors register against a private registry so
// multiple Monitors (e.g. in tests) never collide on the global one.
func New(budget MemoryBudget, policy Policy, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	const namespace, subsystem = "webcore", "hibernate"

	m := &Monitor{
		budget: budget,
		policy: policy,
		tabs:   map[uint64]*Tab{},
		log:    log,

		hibernatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "hibernated_total",
			Help: "Total number of tabs hibernated",
		}),
		restoredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "restored_total",
			Help: "Total number of tabs restored from hibernation",
		}),
		memoryFreedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "memory_freed_bytes_total",
			Help: "Total bytes freed by hibernating tabs",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "failed_hibernations_total",
			Help: "Total number of hibernation attempts that failed",
		}),
		pressureGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "pressure_level",
			Help: "Current memory pressure level (0=none,1=moderate,2=critical)",
		}),
		tabStateGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "tabs_in_state",
			Help: "Number of tabs currently in each hibernation state",
		}, []string{"state"}),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(m.hibernatedTotal, m.restoredTotal, m.memoryFreedTotal,
		m.failedTotal, m.pressureGauge, m.tabStateGauge)

	return m
}

// Stats returns a copy of the current lifetime counters.
func (m *Monitor) Stats() Stats { return m.stats }

// Register adds a tab to the monitor, Active by default.
func (m *Monitor) Register(id uint64) *Tab {
	t := &Tab{ID: id, state: Active, LastActive: time.Now()}
	m.tabs[id] = t
	m.tabStateGauge.WithLabelValues(t.state.String()).Inc()
	return t
}

func (m *Monitor) tab(id uint64) (*Tab, error) {
	t, ok := m.tabs[id]
	if !ok {
		return nil, ErrTabNotFound
	}
	return t, nil
}

func (m *Monitor) transition(t *Tab, to State) {
	m.tabStateGauge.WithLabelValues(t.state.String()).Dec()
	t.state = to
	m.tabStateGauge.WithLabelValues(t.state.String()).Inc()
}

// MarkActive moves a tab to Active and refreshes its last-active time.
func (m *Monitor) MarkActive(id uint64) error {
	t, err := m.tab(id)
	if err != nil {
		return err
	}
	m.transition(t, Active)
	t.LastActive = time.Now()
	return nil
}

// MarkIdle moves a tab to Idle. Called by whatever owns tab-activity
// tracking once it decides the tab hasn't been interacted with.
func (m *Monitor) MarkIdle(id uint64) error {
	t, err := m.tab(id)
	if err != nil {
		return err
	}
	if t.state == Active {
		m.transition(t, Idle)
	}
	return nil
}

// RecomputePressure reports the pressure level for a given total-used
// figure and records it on the gauge. Spec: "on each tab update the
// monitor recomputes pressure."
func (m *Monitor) RecomputePressure(usedTotal uint64) Pressure {
	p := m.budget.PressureFor(usedTotal)
	m.pressureGauge.Set(float64(p))
	return p
}

// Candidates returns the ids of every registered tab currently
// eligible for hibernation under pressure.
func (m *Monitor) Candidates(pressure Pressure) []uint64 {
	now := time.Now()
	var ids []uint64
	for id, t := range m.tabs {
		if m.policy.Candidate(t, pressure, now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Hibernate transitions a tab Idle -> Hibernating -> Hibernated,
// capturing snap and releasing the tab's tracked memory. Calling it on
// a tab that is already Hibernating or Hibernated fails with
// ErrAlreadyHibernated (and increments FailedHibernations).
func (m *Monitor) Hibernate(id uint64, snap Snapshot) error {
	t, err := m.tab(id)
	if err != nil {
		return err
	}
	if t.state == Hibernating || t.state == Hibernated {
		m.stats.FailedHibernations++
		m.failedTotal.Inc()
		return ErrAlreadyHibernated
	}

	m.transition(t, Hibernating)
	t.snapshot = &snap
	freed := t.MemoryBytes
	t.MemoryBytes = 0
	m.transition(t, Hibernated)

	m.stats.Hibernated++
	m.stats.MemoryFreedBytes += freed
	m.hibernatedTotal.Inc()
	m.memoryFreedTotal.Add(float64(freed))
	m.log.Info("hibernate: tab hibernated",
		zap.Uint64("tab", id), zap.String("url", snap.URL), zap.Uint64("bytes_freed", freed))
	return nil
}

// RestoreResult is what Restore hands back: the snapshot to rehydrate
// the renderer from, which the caller is expected to turn into a
// navigation (spec: "restore rehydrates and triggers a navigation").
type RestoreResult struct {
	Snapshot Snapshot
}

// Restore transitions a tab Hibernated -> Restoring -> Active and
// returns the snapshot captured at hibernation time. Calling it on a
// tab that isn't Hibernated fails with ErrNotHibernated.
func (m *Monitor) Restore(id uint64) (RestoreResult, error) {
	t, err := m.tab(id)
	if err != nil {
		return RestoreResult{}, err
	}
	if t.state != Hibernated {
		m.stats.FailedHibernations++
		m.failedTotal.Inc()
		return RestoreResult{}, ErrNotHibernated
	}
	if t.snapshot == nil {
		m.stats.FailedHibernations++
		m.failedTotal.Inc()
		return RestoreResult{}, ErrNoSnapshot
	}

	m.transition(t, Restoring)
	snap := *t.snapshot
	t.snapshot = nil
	m.transition(t, Active)
	t.LastActive = time.Now()

	m.stats.Restored++
	m.restoredTotal.Inc()
	m.log.Info("hibernate: tab restored", zap.Uint64("tab", id), zap.String("url", snap.URL))
	return RestoreResult{Snapshot: snap}, nil
}

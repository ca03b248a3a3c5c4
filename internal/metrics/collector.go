package metrics

import (
	"sort"
	"sync"
	"time"
)

// Outcome labels how a switch session ended.
type Outcome string

const (
	OutcomeActivate    Outcome = "activate"
	OutcomeQuickSwitch Outcome = "quick-switch"
	OutcomeLaunch      Outcome = "launch"
	OutcomeCancel      Outcome = "cancel"
)

// Collector aggregates anonymous counters for session outcomes. Window
// addresses, classes, and titles are never recorded.
type Collector struct {
	mu       sync.RWMutex
	enabled  bool
	started  time.Time
	sessions uint64
	focusErr uint64
	outcomes map[Outcome]*OutcomeMetrics
}

// OutcomeMetrics captures per-outcome counters tracked by the collector.
type OutcomeMetrics struct {
	Outcome  Outcome   `json:"outcome"`
	Count    uint64    `json:"count"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// Snapshot is the serializable view of the current metrics state.
type Snapshot struct {
	Enabled     bool             `json:"enabled"`
	Started     time.Time        `json:"started,omitempty"`
	Sessions    uint64           `json:"sessions"`
	FocusErrors uint64           `json:"focusErrors"`
	Outcomes    []OutcomeMetrics `json:"outcomes,omitempty"`
}

// NewCollector returns a collector with the provided opt-in state.
func NewCollector(enabled bool) *Collector {
	c := &Collector{}
	c.SetEnabled(enabled)
	return c
}

// Enabled reports whether collection is currently active.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection, resetting counters when enabling.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if !enabled {
		c.outcomes = nil
		c.sessions = 0
		c.focusErr = 0
		c.started = time.Time{}
		return
	}
	c.started = time.Now()
	c.outcomes = make(map[Outcome]*OutcomeMetrics)
}

// RecordSession counts one session start.
func (c *Collector) RecordSession() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.sessions++
}

// RecordOutcome counts a terminal session outcome.
func (c *Collector) RecordOutcome(outcome Outcome) {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.outcomes == nil {
		c.outcomes = make(map[Outcome]*OutcomeMetrics)
	}
	m, exists := c.outcomes[outcome]
	if !exists {
		m = &OutcomeMetrics{Outcome: outcome}
		c.outcomes[outcome] = m
	}
	m.Count++
	m.LastSeen = now
}

// RecordFocusError counts a failed focus dispatch.
func (c *Collector) RecordFocusError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.focusErr++
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Enabled: c.enabled}
	if !c.enabled {
		return snap
	}
	snap.Started = c.started
	snap.Sessions = c.sessions
	snap.FocusErrors = c.focusErr
	if len(c.outcomes) == 0 {
		return snap
	}
	snap.Outcomes = make([]OutcomeMetrics, 0, len(c.outcomes))
	for _, m := range c.outcomes {
		if m == nil {
			continue
		}
		snap.Outcomes = append(snap.Outcomes, *m)
	}
	sort.Slice(snap.Outcomes, func(i, j int) bool {
		return snap.Outcomes[i].Outcome < snap.Outcomes[j].Outcome
	})
	return snap
}

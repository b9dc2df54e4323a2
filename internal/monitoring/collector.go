// Package monitoring watches resolver health and raises alerts when lookups
// start failing.
package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// MetricsSnapshot holds resolver activity since the previous snapshot.
type MetricsSnapshot struct {
	Lookups        int64   `json:"lookups"`
	Resolved       int64   `json:"resolved"`
	Unresolved     int64   `json:"unresolved"`
	UnresolvedRate float64 `json:"unresolved_rate"`
	Abandoned      int64   `json:"abandoned"`
	CacheHits      int64   `json:"cache_hits"`
	StaleDiscards  int64   `json:"stale_discards"`

	// OpenCircuits lists providers whose circuit is currently open.
	OpenCircuits []string `json:"open_circuits,omitempty"`

	Window      time.Duration `json:"window"`
	CollectedAt time.Time     `json:"collected_at"`
}

// StatsSource reports cumulative resolver counters.
type StatsSource interface {
	Stats() geocode.Stats
}

// StaleCounter reports cumulative stale-result discards.
type StaleCounter interface {
	Stale() int64
}

// Collector turns cumulative counters into per-window snapshots.
type Collector struct {
	stats StatsSource
	stale StaleCounter
	now   func() time.Time

	mu        sync.Mutex
	last      geocode.Stats
	lastStale int64
	lastAt    time.Time
}

// NewCollector creates a collector. stale may be nil.
func NewCollector(stats StatsSource, stale StaleCounter) *Collector {
	c := &Collector{stats: stats, stale: stale, now: time.Now}
	c.lastAt = c.now()
	return c
}

// Collect returns the activity since the previous call (or since the
// collector was created).
func (c *Collector) Collect() *MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.stats.Stats()
	var stale int64
	if c.stale != nil {
		stale = c.stale.Stale()
	}
	now := c.now().UTC()

	snap := &MetricsSnapshot{
		Lookups:       cur.Lookups - c.last.Lookups,
		Resolved:      cur.Resolved - c.last.Resolved,
		Unresolved:    cur.Unresolved - c.last.Unresolved,
		Abandoned:     cur.Abandoned - c.last.Abandoned,
		CacheHits:     cur.CacheHits - c.last.CacheHits,
		StaleDiscards: stale - c.lastStale,
		Window:        now.Sub(c.lastAt),
		CollectedAt:   now,
	}
	if finished := snap.Resolved + snap.Unresolved; finished > 0 {
		snap.UnresolvedRate = float64(snap.Unresolved) / float64(finished)
	}
	for name, state := range cur.Circuits {
		if state == "open" {
			snap.OpenCircuits = append(snap.OpenCircuits, name)
		}
	}
	sort.Strings(snap.OpenCircuits)

	c.last = cur
	c.lastStale = stale
	c.lastAt = now
	return snap
}

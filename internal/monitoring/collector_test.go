package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

type fakeStats struct {
	stats geocode.Stats
	stale int64
}

func (f *fakeStats) Stats() geocode.Stats { return f.stats }
func (f *fakeStats) Stale() int64         { return f.stale }

func TestCollector_Deltas(t *testing.T) {
	src := &fakeStats{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCollector(src, src)
	c.now = func() time.Time { return clock }
	c.lastAt = clock

	src.stats = geocode.Stats{Lookups: 10, Resolved: 6, Unresolved: 4, CacheHits: 2}
	src.stale = 1
	clock = clock.Add(time.Minute)

	snap := c.Collect()
	assert.Equal(t, int64(10), snap.Lookups)
	assert.Equal(t, int64(4), snap.Unresolved)
	assert.InDelta(t, 0.4, snap.UnresolvedRate, 1e-9)
	assert.Equal(t, int64(2), snap.CacheHits)
	assert.Equal(t, int64(1), snap.StaleDiscards)
	assert.Equal(t, time.Minute, snap.Window)

	src.stats = geocode.Stats{Lookups: 13, Resolved: 9, Unresolved: 4, CacheHits: 2}
	clock = clock.Add(30 * time.Second)

	snap = c.Collect()
	assert.Equal(t, int64(3), snap.Lookups)
	assert.Equal(t, int64(0), snap.Unresolved)
	assert.Zero(t, snap.UnresolvedRate)
	assert.Equal(t, int64(0), snap.StaleDiscards)
	assert.Equal(t, 30*time.Second, snap.Window)
}

func TestCollector_OpenCircuits(t *testing.T) {
	src := &fakeStats{stats: geocode.Stats{Circuits: map[string]string{
		"zippopotam": "open",
		"nominatim":  "open",
		"google":     "closed",
	}}}

	snap := NewCollector(src, nil).Collect()

	assert.Equal(t, []string{"nominatim", "zippopotam"}, snap.OpenCircuits)
}

func TestCollector_NoActivity(t *testing.T) {
	snap := NewCollector(&fakeStats{}, nil).Collect()

	assert.Zero(t, snap.Lookups)
	assert.Zero(t, snap.UnresolvedRate)
	assert.Empty(t, snap.OpenCircuits)
}

func TestCollector_AbandonedLookupsDoNotRaiseRate(t *testing.T) {
	src := &fakeStats{stats: geocode.Stats{Lookups: 10, Resolved: 5, Abandoned: 5}, stale: 5}

	snap := NewCollector(src, src).Collect()

	assert.Equal(t, int64(5), snap.Abandoned)
	assert.Equal(t, int64(5), snap.StaleDiscards)
	assert.Zero(t, snap.UnresolvedRate)
}

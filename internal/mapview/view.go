// Package mapview owns the map marker. Lookups may finish in any order; only
// the most recently started one is allowed to move the marker.
package mapview

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// Resolver maps a ZIP code to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, zip geocode.ZipCode) geocode.Result
}

// Ticket identifies one lookup started with Begin.
type Ticket struct {
	seq uint64
}

// Seq returns the ticket's sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// Option configures a View.
type Option func(*View)

// WithDefault sets the marker shown before the first successful lookup.
func WithDefault(zip string, coords geocode.Coordinates) Option {
	return func(v *View) {
		v.marker.ZipCode = zip
		v.marker.Coordinates = coords
	}
}

// WithMarketData sets the market summary carried by the marker.
func WithMarketData(md MarketData) Option {
	return func(v *View) {
		v.marker.MarketData = md
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *View) {
		v.now = now
	}
}

// View holds the current marker. All writes go through Apply.
type View struct {
	resolver Resolver
	now      func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	marker Marker

	stale atomic.Int64
}

// New creates a View at the default location.
func New(resolver Resolver, opts ...Option) *View {
	v := &View{
		resolver: resolver,
		now:      time.Now,
		marker: Marker{
			ZipCode:     DefaultZipCode,
			Coordinates: DefaultCoordinates,
			MarketData:  DefaultMarketData(),
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.marker.UpdatedAt = v.now()
	return v
}

// Begin starts a lookup. The returned context is cancelled as soon as a newer
// lookup begins.
func (v *View) Begin(ctx context.Context) (context.Context, Ticket) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
	}
	v.seq++
	ctx, v.cancel = context.WithCancel(ctx)
	return ctx, Ticket{seq: v.seq}
}

// Apply records the result of the lookup identified by t. It reports whether
// the marker moved. Results for superseded tickets are discarded, as are
// unresolved results.
func (v *View) Apply(t Ticket, zip string, result geocode.Result) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.seq != v.seq {
		v.stale.Add(1)
		zap.L().Debug("mapview: discarding stale result",
			zap.String("zip", zip),
			zap.Uint64("ticket", t.seq),
			zap.Uint64("current", v.seq),
		)
		return false
	}

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	if !result.Resolved {
		zap.L().Info("mapview: zip unresolved, keeping marker",
			zap.String("zip", zip),
			zap.String("marker_zip", v.marker.ZipCode),
		)
		return false
	}

	v.marker.ZipCode = zip
	v.marker.Coordinates = result.Coordinates
	v.marker.Resolved = true
	v.marker.UpdatedAt = v.now()
	return true
}

// Locate resolves zip and applies the result, returning the marker as it
// stands afterwards.
func (v *View) Locate(ctx context.Context, zip string) Marker {
	ctx, t := v.Begin(ctx)
	result := v.resolver.Resolve(ctx, geocode.ZipCode(zip))
	v.Apply(t, zip, result)
	return v.Current()
}

// Current returns a copy of the marker.
func (v *View) Current() Marker {
	v.mu.Lock()
	defer v.mu.Unlock()

	m := v.marker
	m.MarketData.BusinessZones = append([]string(nil), v.marker.MarketData.BusinessZones...)
	return m
}

// Stale returns how many superseded results have been discarded.
func (v *View) Stale() int64 {
	return v.stale.Load()
}

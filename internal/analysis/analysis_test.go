package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/opportunity-analyzer/internal/mapview"
	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

type stubResolver map[geocode.ZipCode]geocode.Coordinates

func (s stubResolver) Resolve(_ context.Context, zip geocode.ZipCode) geocode.Result {
	coords, ok := s[zip]
	return geocode.Result{Coordinates: coords, Source: "stub", Resolved: ok}
}

type resolverFunc func(ctx context.Context, zip geocode.ZipCode) geocode.Result

func (f resolverFunc) Resolve(ctx context.Context, zip geocode.ZipCode) geocode.Result {
	return f(ctx, zip)
}

type blockingLocator struct {
	started chan struct{}
}

func (b *blockingLocator) Locate(ctx context.Context, _ string) mapview.Marker {
	close(b.started)
	<-ctx.Done()
	return mapview.Marker{}
}

func (b *blockingLocator) Current() mapview.Marker { return mapview.Marker{} }

func newService(opts ...Option) *Service {
	view := mapview.New(stubResolver{
		"10001": {Latitude: 40.7484, Longitude: -73.9967},
	})
	return New(view, append([]Option{WithDelay(0)}, opts...)...)
}

func TestAnalyze_ResolvedZip(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := newService(WithClock(func() time.Time { return at }))

	report, err := s.Analyze(context.Background(), "10001")
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, "10001", report.ZipCode)
	assert.Equal(t, 40.7484, report.Location.Latitude)
	assert.Equal(t, -73.9967, report.Location.Longitude)
	assert.True(t, report.Location.Resolved)
	assert.Equal(t, mapview.DefaultMarketData(), report.Location.MarketData)
	assert.Equal(t, SampleRecommendations(), report.Recommendations)
	assert.Equal(t, SampleDemographics(), report.Demographics)
	assert.Equal(t, at, report.GeneratedAt)

	status := s.Status()
	assert.Equal(t, StateReady, status.State)
	assert.Equal(t, "10001", status.ZipCode)
	assert.Same(t, report, status.Report)
}

func TestAnalyze_UnresolvedZipUsesDefaultLocation(t *testing.T) {
	s := newService()

	report, err := s.Analyze(context.Background(), "00000")
	require.NoError(t, err)

	assert.False(t, report.Location.Resolved)
	assert.Equal(t, 40.7128, report.Location.Latitude)
	assert.Equal(t, -74.0060, report.Location.Longitude)
}

func TestAnalyze_OverlappingOlderReportKeepsItsStartingLocation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	view := mapview.New(resolverFunc(func(ctx context.Context, zip geocode.ZipCode) geocode.Result {
		if zip == "10001" {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return geocode.Result{Coordinates: geocode.Coordinates{Latitude: 40.7484, Longitude: -73.9967}, Source: "stub", Resolved: true}
		}
		return geocode.Result{Coordinates: geocode.Coordinates{Latitude: 41.8781, Longitude: -87.6298}, Source: "stub", Resolved: true}
	}))
	s := New(view, WithDelay(0))

	type outcome struct {
		report *Report
		err    error
	}
	older := make(chan outcome, 1)
	go func() {
		r, err := s.Analyze(context.Background(), "10001")
		older <- outcome{r, err}
	}()

	<-started
	newer, err := s.Analyze(context.Background(), "60601")
	require.NoError(t, err)
	close(release)
	got := <-older
	require.NoError(t, got.err)

	assert.True(t, newer.Location.Resolved)
	assert.Equal(t, 41.8781, newer.Location.Latitude)

	assert.Equal(t, "10001", got.report.ZipCode)
	assert.False(t, got.report.Location.Resolved)
	assert.Equal(t, 40.7128, got.report.Location.Latitude)
	assert.Equal(t, -74.0060, got.report.Location.Longitude)

	assert.Equal(t, "60601", view.Current().ZipCode)
	assert.Same(t, newer, s.Status().Report)
}

func TestAnalyze_InvalidZip(t *testing.T) {
	s := newService()

	for _, zip := range []string{"", "1234", "123456", "abcde", "1234 "} {
		_, err := s.Analyze(context.Background(), zip)
		assert.True(t, errors.Is(err, ErrInvalidZipCode), zip)
	}
	assert.Equal(t, StateIdle, s.Status().State)
}

func TestAnalyze_WaitsForDelay(t *testing.T) {
	s := newService(WithDelay(50 * time.Millisecond))

	start := time.Now()
	_, err := s.Analyze(context.Background(), "10001")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAnalyze_StatusAnalyzingWhileRunning(t *testing.T) {
	loc := &blockingLocator{started: make(chan struct{})}
	s := New(loc, WithDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx, "10001")
		done <- err
	}()

	<-loc.started
	status := s.Status()
	assert.Equal(t, StateAnalyzing, status.State)
	assert.Equal(t, "10001", status.ZipCode)
	assert.Nil(t, status.Report)

	cancel()
	<-done
}

func TestAnalyze_CancelRestoresPreviousStatus(t *testing.T) {
	s := newService()
	first, err := s.Analyze(context.Background(), "10001")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.delay = time.Hour

	_, err = s.Analyze(ctx, "60601")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	status := s.Status()
	assert.Equal(t, StateReady, status.State)
	assert.Equal(t, first, status.Report)
}

func TestNew_NilRecommendationsUsesCatalog(t *testing.T) {
	s := newService(WithRecommendations(nil))

	report, err := s.Analyze(context.Background(), "10001")
	require.NoError(t, err)

	require.Len(t, report.Recommendations, 3)
	assert.Equal(t, "Tech Repair Shop", report.Recommendations[2].BusinessType)
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil)

	assert.Equal(t, DefaultDelay, s.delay)
	assert.Equal(t, Status{State: StateIdle}, s.Status())
}

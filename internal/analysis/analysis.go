// Package analysis runs a ZIP code analysis: it places the map marker and
// assembles the opportunity report shown on the dashboard.
package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/opportunity-analyzer/internal/mapview"
	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// DefaultDelay is how long an analysis takes at minimum.
const DefaultDelay = 2 * time.Second

// ErrInvalidZipCode is returned for input that is not exactly five digits.
var ErrInvalidZipCode = errors.New("invalid zip code: expected 5 digits")

// State is the dashboard phase.
type State string

// Dashboard phases.
const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
)

// Location is where the report places the analyzed area.
type Location struct {
	Latitude   float64            `json:"latitude" yaml:"latitude"`
	Longitude  float64            `json:"longitude" yaml:"longitude"`
	Resolved   bool               `json:"resolved" yaml:"resolved"`
	MarketData mapview.MarketData `json:"market_data" yaml:"market_data"`
}

// Report is the result of one analysis.
type Report struct {
	ID              string           `json:"id" yaml:"id"`
	ZipCode         string           `json:"zip_code" yaml:"zip_code"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	Location        Location         `json:"location" yaml:"location"`
	Demographics    Demographics     `json:"demographics" yaml:"demographics"`
	GeneratedAt     time.Time        `json:"generated_at" yaml:"generated_at"`
}

// Status is the dashboard as it currently stands.
type Status struct {
	ZipCode string  `json:"zip_code"`
	State   State   `json:"state"`
	Report  *Report `json:"report,omitempty"`
}

// Locator places the map marker for a ZIP code.
type Locator interface {
	Locate(ctx context.Context, zip string) mapview.Marker
	Current() mapview.Marker
}

// Option configures a Service.
type Option func(*Service)

// WithDelay sets the minimum analysis time. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithRecommendations sets the recommendations included in each report.
func WithRecommendations(recs []Recommendation) Option {
	return func(s *Service) {
		s.recommendations = recs
	}
}

// WithDemographics sets the demographic summary included in each report.
func WithDemographics(d Demographics) Option {
	return func(s *Service) {
		s.demographics = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs analyses and tracks the dashboard status.
type Service struct {
	locator         Locator
	delay           time.Duration
	recommendations []Recommendation
	demographics    Demographics
	now             func() time.Time

	mu     sync.Mutex
	seq    uint64
	status Status
}

// New creates a Service.
func New(locator Locator, opts ...Option) *Service {
	s := &Service{
		locator:         locator,
		delay:           DefaultDelay,
		recommendations: SampleRecommendations(),
		demographics:    SampleDemographics(),
		now:             time.Now,
		status:          Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recommendations == nil {
		s.recommendations = DefaultRecommendations()
	}
	return s
}

// Analyze runs an analysis for zip. The marker lookup and the minimum delay
// run concurrently; the report is built once both finish. If ctx ends first
// the dashboard returns to where it was.
//
// The report's location is the marker for zip when the lookup resolved it.
// Otherwise it is the marker as it stood when this analysis started, so an
// overlapping newer analysis never lends its coordinates to this report.
func (s *Service) Analyze(ctx context.Context, zip string) (*Report, error) {
	if !geocode.ZipCode(zip).Valid() {
		return nil, eris.Wrapf(ErrInvalidZipCode, "analysis: %q", zip)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	prev := s.status
	s.status = Status{ZipCode: zip, State: StateAnalyzing}
	s.mu.Unlock()

	log := zap.L().With(zap.String("zip", zip), zap.Uint64("seq", seq))
	log.Info("analysis: started")
	start := s.now()
	before := s.locator.Current()

	var marker mapview.Marker
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wait(gctx, s.delay)
	})
	g.Go(func() error {
		marker = s.locator.Locate(gctx, zip)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		if s.seq == seq {
			s.status = prev
		}
		s.mu.Unlock()
		log.Info("analysis: aborted", zap.Error(err))
		return nil, eris.Wrap(err, "analysis: aborted")
	}

	resolved := marker.Resolved && marker.ZipCode == zip
	if !resolved {
		marker = before
	}

	report := &Report{
		ID:              uuid.NewString(),
		ZipCode:         zip,
		Recommendations: append([]Recommendation(nil), s.recommendations...),
		Location: Location{
			Latitude:   marker.Latitude,
			Longitude:  marker.Longitude,
			Resolved:   resolved,
			MarketData: marker.MarketData,
		},
		Demographics: s.demographics,
		GeneratedAt:  s.now(),
	}

	s.mu.Lock()
	if s.seq == seq {
		s.status = Status{ZipCode: zip, State: StateReady, Report: report}
	}
	s.mu.Unlock()

	log.Info("analysis: ready",
		zap.String("report_id", report.ID),
		zap.Bool("resolved", report.Location.Resolved),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return report, nil
}

// Status returns the dashboard status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

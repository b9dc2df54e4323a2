package mapview

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// Default marker location shown before any ZIP has resolved.
var (
	DefaultZipCode     = "12345"
	DefaultCoordinates = geocode.Coordinates{Latitude: 40.7128, Longitude: -74.0060}
)

// MarketData is the local market summary attached to the marker.
type MarketData struct {
	CompetitorDensity float64  `json:"competitor_density" yaml:"competitor_density"`
	TrafficScore      int      `json:"traffic_score" yaml:"traffic_score"`
	BusinessZones     []string `json:"business_zones" yaml:"business_zones"`
}

// DefaultMarketData returns the sample market summary.
func DefaultMarketData() MarketData {
	return MarketData{
		CompetitorDensity: 0.7,
		TrafficScore:      85,
		BusinessZones:     []string{"Commercial", "Retail", "Restaurant"},
	}
}

// Marker is the single point displayed on the map.
type Marker struct {
	ZipCode string `json:"zip_code"`
	geocode.Coordinates
	Resolved   bool       `json:"resolved"`
	MarketData MarketData `json:"market_data"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Feature returns m as a GeoJSON point feature.
func (m Marker) Feature() *geojson.Feature {
	return &geojson.Feature{
		ID:       m.ZipCode,
		Geometry: geom.NewPointFlat(geom.XY, []float64{m.Longitude, m.Latitude}).SetSRID(4326),
		Properties: map[string]interface{}{
			"zip_code":           m.ZipCode,
			"resolved":           m.Resolved,
			"competitor_density": m.MarketData.CompetitorDensity,
			"traffic_score":      m.MarketData.TrafficScore,
			"business_zones":     m.MarketData.BusinessZones,
			"updated_at":         m.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}
}

// GeoJSON encodes the marker feature.
func (m Marker) GeoJSON() ([]byte, error) {
	data, err := json.Marshal(m.Feature())
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode marker")
	}
	return data, nil
}

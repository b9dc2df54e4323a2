package analysis

// RecommendationMetrics summarizes the market for one business type.
type RecommendationMetrics struct {
	Competition  string `json:"competition" yaml:"competition"`
	GrowthRate   string `json:"growth_rate" yaml:"growth_rate"`
	CustomerBase string `json:"customer_base" yaml:"customer_base"`
}

// Recommendation is a suggested business for the analyzed area.
type Recommendation struct {
	ID              string                `json:"id" yaml:"id"`
	BusinessType    string                `json:"business_type" yaml:"business_type"`
	ConfidenceScore int                   `json:"confidence_score" yaml:"confidence_score"`
	MarketPotential string                `json:"market_potential" yaml:"market_potential"`
	Description     string                `json:"description" yaml:"description"`
	Metrics         RecommendationMetrics `json:"metrics" yaml:"metrics"`
}

// Metric is one labeled demographic indicator on a 0-100 scale.
type Metric struct {
	Label       string `json:"label" yaml:"label"`
	Value       int    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// Demographics describes the population around the analyzed area.
type Demographics struct {
	PopulationDensity int      `json:"population_density" yaml:"population_density"`
	MedianIncome      int      `json:"median_income" yaml:"median_income"`
	CompetitorCount   int      `json:"competitor_count" yaml:"competitor_count"`
	MarketSaturation  int      `json:"market_saturation" yaml:"market_saturation"`
	Metrics           []Metric `json:"metrics" yaml:"metrics"`
}

var (
	coffeeShop = Recommendation{
		ID:              "1",
		BusinessType:    "Coffee Shop",
		ConfidenceScore: 85,
		MarketPotential: "High",
		Description:     "Prime opportunity for a specialty coffee shop with remote work facilities",
		Metrics: RecommendationMetrics{
			Competition:  "Low",
			GrowthRate:   "12% annually",
			CustomerBase: "Young professionals",
		},
	}
	fitnessStudio = Recommendation{
		ID:              "2",
		BusinessType:    "Fitness Studio",
		ConfidenceScore: 78,
		MarketPotential: "Medium",
		Description:     "Boutique fitness studio focusing on group classes and personal training",
		Metrics: RecommendationMetrics{
			Competition:  "Medium",
			GrowthRate:   "8% annually",
			CustomerBase: "Health-conscious adults",
		},
	}
	techRepair = Recommendation{
		ID:              "3",
		BusinessType:    "Tech Repair Shop",
		ConfidenceScore: 72,
		MarketPotential: "High",
		Description:     "Electronics repair service with focus on mobile devices and laptops",
		Metrics: RecommendationMetrics{
			Competition:  "Low",
			GrowthRate:   "15% annually",
			CustomerBase: "All demographics",
		},
	}
)

// SampleRecommendations returns the two recommendations submitted with every
// analysis.
func SampleRecommendations() []Recommendation {
	return []Recommendation{coffeeShop, fitnessStudio}
}

// DefaultRecommendations returns the full recommendation catalog.
func DefaultRecommendations() []Recommendation {
	return []Recommendation{coffeeShop, fitnessStudio, techRepair}
}

// SampleDemographics returns the demographic summary attached to reports.
func SampleDemographics() Demographics {
	return Demographics{
		PopulationDensity: 5280,
		MedianIncome:      75000,
		CompetitorCount:   12,
		MarketSaturation:  70,
		Metrics: []Metric{
			{Label: "Population Growth", Value: 75, Description: "Annual population growth rate"},
			{Label: "Business Density", Value: 60, Description: "Relative to city average"},
			{Label: "Market Saturation", Value: 45, Description: "Available market opportunity"},
		},
	}
}

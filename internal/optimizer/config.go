package optimizer

// Config carries every tunable of the engine. It is passed to New; the
// engine keeps no other state.
type Config struct {
	DefaultServiceLevel    float64
	DefaultHoldingCostRate float64
	// MaxServiceLevel is the upper bound of the multi-criteria search.
	MaxServiceLevel float64
	ABCThresholds   ABCThresholds
	Weights         Weights
	MaxIterations   int
	Tolerance       float64
	JITOrderFreq    float64
	JITBuffer       float64
	Workers         int
	DaysPerYear     float64
	Rules           RecommendationRules
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DefaultServiceLevel:    0.95,
		DefaultHoldingCostRate: 0.25,
		MaxServiceLevel:        0.9999,
		ABCThresholds:          DefaultABCThresholds(),
		Weights:                DefaultWeights(),
		MaxIterations:          500,
		Tolerance:              1e-9,
		JITOrderFreq:           7,
		JITBuffer:              0.2,
		Workers:                4,
		DaysPerYear:            DaysPerYear,
		Rules:                  DefaultRecommendationRules(),
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultServiceLevel <= 0 {
		c.DefaultServiceLevel = d.DefaultServiceLevel
	}
	if c.DefaultHoldingCostRate <= 0 {
		c.DefaultHoldingCostRate = d.DefaultHoldingCostRate
	}
	if c.MaxServiceLevel <= 0 || c.MaxServiceLevel >= 1 {
		c.MaxServiceLevel = d.MaxServiceLevel
	}
	if c.ABCThresholds == (ABCThresholds{}) {
		c.ABCThresholds = d.ABCThresholds
	}
	c.ABCThresholds = c.ABCThresholds.normalized()
	c.Weights = c.Weights.Normalize()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.JITOrderFreq <= 0 {
		c.JITOrderFreq = d.JITOrderFreq
	}
	if c.JITBuffer <= 0 {
		c.JITBuffer = d.JITBuffer
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.DaysPerYear <= 0 {
		c.DaysPerYear = d.DaysPerYear
	}
	if c.Rules.ApproachingReorderFactor <= 0 {
		c.Rules.ApproachingReorderFactor = d.Rules.ApproachingReorderFactor
	}
	if c.Rules.LongLeadTimeDays <= 0 {
		c.Rules.LongLeadTimeDays = d.Rules.LongLeadTimeDays
	}
	if c.Rules.SafetyStockRatio <= 0 {
		c.Rules.SafetyStockRatio = d.Rules.SafetyStockRatio
	}
	if c.Rules.SeasonalityThreshold <= 0 {
		c.Rules.SeasonalityThreshold = d.Rules.SeasonalityThreshold
	}
	if c.Rules.MaxRecommendations <= 0 {
		c.Rules.MaxRecommendations = d.Rules.MaxRecommendations
	}
	return c
}

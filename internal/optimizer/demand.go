package optimizer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DaysPerYear is the default annualization factor.
const DaysPerYear = 365.0

// DemandStats summarizes a daily demand series.
type DemandStats struct {
	Mean       float64 `json:"mean_daily_demand"`
	Std        float64 `json:"std_daily_demand"`
	Annualized float64 `json:"annual_demand"`
	Periods    int     `json:"periods"`
}

// IsZero reports the terminal "no optimization possible" condition.
func (s DemandStats) IsZero() bool {
	return s.Annualized <= 0
}

// CleanDemand floors missing, NaN, infinite and negative observations to 0.
// The input slice is left untouched.
func CleanDemand(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out[i] = v
	}
	return out
}

// ComputeDemandStats returns mean, sample standard deviation and the
// annualized demand (mean * daysPerYear) of a daily series. A series of one
// observation has zero deviation; an empty or all-zero series yields zeros.
func ComputeDemandStats(series []float64, daysPerYear float64) DemandStats {
	if daysPerYear <= 0 {
		daysPerYear = DaysPerYear
	}
	clean := CleanDemand(series)
	if len(clean) == 0 {
		return DemandStats{}
	}

	var mean, std float64
	if len(clean) == 1 {
		mean = clean[0]
	} else {
		mean, std = stat.MeanStdDev(clean, nil)
	}
	if mean <= 0 {
		return DemandStats{Periods: len(clean)}
	}
	if math.IsNaN(std) || std < 0 {
		std = 0
	}

	return DemandStats{
		Mean:       mean,
		Std:        std,
		Annualized: mean * daysPerYear,
		Periods:    len(clean),
	}
}

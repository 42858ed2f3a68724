package optimizer

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	minServiceLevel = 0.001
	maxServiceLevel = 0.999
)

// ClampServiceLevel clamps a service level into [0.001, 0.999]. NaN maps to
// the lower bound so callers always get a usable probability.
func ClampServiceLevel(level float64) float64 {
	return clampRange(level, minServiceLevel, maxServiceLevel)
}

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ZScore is the inverse standard normal CDF of a (clamped) service level.
func ZScore(serviceLevel float64) float64 {
	return distuv.UnitNormal.Quantile(ClampServiceLevel(serviceLevel))
}

// NormalLoss is the unit normal loss integral G(z) = φ(z) - z(1-Φ(z)).
// When 1-Φ(z) underflows the z term is dropped.
func NormalLoss(z float64) float64 {
	pdf := distuv.UnitNormal.Prob(z)
	tail := distuv.UnitNormal.Survival(z)
	if tail < 1e-12 {
		return pdf
	}
	return pdf - z*tail
}

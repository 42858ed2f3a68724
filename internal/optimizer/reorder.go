package optimizer

import "math"

// ReorderPolicy is the constant-lead-time (s, Q) reorder policy of one item.
type ReorderPolicy struct {
	ReorderPoint         float64
	SafetyStock          float64
	ZScore               float64
	ServiceLevel         float64 // the clamped level actually used
	LeadTimeDemandStdDev float64
}

// ReorderPointSafetyStock computes reorder point and safety stock assuming
// normally distributed daily demand and a deterministic lead time.
// Out-of-range inputs are clamped, never rejected.
func ReorderPointSafetyStock(meanDaily, stdDaily, leadTimeDays, serviceLevel float64) ReorderPolicy {
	level := ClampServiceLevel(serviceLevel)
	if math.IsNaN(stdDaily) || stdDaily < 0 {
		stdDaily = 0
	}
	if math.IsNaN(leadTimeDays) || leadTimeDays < 0 {
		leadTimeDays = 0
	}
	if math.IsNaN(meanDaily) || meanDaily < 0 {
		meanDaily = 0
	}

	z := ZScore(level)
	sigmaLT := stdDaily * math.Sqrt(leadTimeDays)
	safetyStock := math.Max(0, z*sigmaLT)
	reorderPoint := math.Max(0, meanDaily*leadTimeDays+safetyStock)

	return ReorderPolicy{
		ReorderPoint:         reorderPoint,
		SafetyStock:          safetyStock,
		ZScore:               z,
		ServiceLevel:         level,
		LeadTimeDemandStdDev: sigmaLT,
	}
}

// ExpectedShortage is the expected number of units short per order cycle,
// G(z) * sigmaLT rounded to 2 decimals. Deterministic demand (sigmaLT ~ 0)
// never runs short.
func ExpectedShortage(sigmaLT, z float64) float64 {
	if math.IsNaN(sigmaLT) || sigmaLT < 1e-9 {
		return 0
	}
	return math.Max(0, roundFloat(NormalLoss(z)*sigmaLT, 2))
}

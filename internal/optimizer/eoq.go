package optimizer

import (
	"math"

	"github.com/shopspring/decimal"
)

// AnnualHoldingCost returns the annual holding cost per unit: the override
// when given, otherwise unitCost * rate.
func AnnualHoldingCost(unitCost, rate float64, override *float64) float64 {
	if override != nil {
		return *override
	}
	return unitCost * rate
}

// EOQ computes the classical Economic Order Quantity.
//
//   - annual demand <= 0: 0, nothing to order
//   - holding cost <= 0: annualDemand/12 (a month of demand)
//   - otherwise sqrt(2*D*S/H), at least one unit
func EOQ(annualDemand, unitCost, orderingCost, holdingCostRate float64, holdingOverride *float64) float64 {
	if math.IsNaN(annualDemand) || annualDemand <= 0 {
		return 0
	}

	holding := AnnualHoldingCost(unitCost, holdingCostRate, holdingOverride)
	if math.IsNaN(holding) || holding <= 0 {
		return math.Max(1, annualDemand/12)
	}
	if orderingCost < 0 {
		orderingCost = 0
	}

	eoq := math.Sqrt(2 * annualDemand * orderingCost / holding)
	if math.IsNaN(eoq) || eoq < 1 {
		return 1
	}
	return eoq
}

// computeCosts annualizes the cost of ordering q units per cycle while
// carrying safetyStock, with an optional per-unit shortage penalty.
func computeCosts(annualDemand, q, safetyStock, holdingPerUnit, orderingCost, shortageCost, expectedShortage, daysPerYear float64) *CostBreakdown {
	if q <= 0 || annualDemand <= 0 {
		return &CostBreakdown{}
	}
	ordersPerYear := annualDemand / q
	for _, v := range []float64{ordersPerYear, q, safetyStock, holdingPerUnit, orderingCost, shortageCost, expectedShortage} {
		if !finite(v) {
			return &CostBreakdown{}
		}
	}

	ordering := decimal.NewFromFloat(orderingCost).Mul(decimal.NewFromFloat(ordersPerYear))
	holding := decimal.NewFromFloat(math.Max(0, holdingPerUnit)).
		Mul(decimal.NewFromFloat(q/2 + safetyStock))
	shortage := decimal.Zero
	if shortageCost > 0 && expectedShortage > 0 {
		shortage = decimal.NewFromFloat(shortageCost).
			Mul(decimal.NewFromFloat(expectedShortage)).
			Mul(decimal.NewFromFloat(ordersPerYear))
	}

	ordering = ordering.Round(2)
	holding = holding.Round(2)
	shortage = shortage.Round(2)
	total := ordering.Add(holding).Add(shortage)

	return &CostBreakdown{
		AnnualOrderingCost: ordering.InexactFloat64(),
		AnnualHoldingCost:  holding.InexactFloat64(),
		AnnualShortageCost: shortage.InexactFloat64(),
		TotalAnnualCost:    total.InexactFloat64(),
		OrdersPerYear:      roundFloat(ordersPerYear, 2),
		CycleDays:          roundFloat(daysPerYear/ordersPerYear, 1),
	}
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

package optimizer

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalInsights are patterns mined from dated demand history.
type HistoricalInsights struct {
	StockoutDays        int        `json:"stockout_days"`
	SeasonalityStrength float64    `json:"seasonality_strength"`
	PeakMonth           time.Month `json:"peak_month"`
	MonthsObserved      int        `json:"months_observed"`
}

// AnalyzeHistory counts stockout days (on-hand <= 0) and measures monthly
// seasonality as (max monthly mean - min monthly mean) / overall mean.
// Seasonality needs at least two distinct calendar months.
func AnalyzeHistory(history []Observation) HistoricalInsights {
	var out HistoricalInsights
	if len(history) == 0 {
		return out
	}

	type acc struct {
		sum float64
		n   int
	}
	months := make(map[time.Month]*acc)
	total := 0.0
	for _, o := range history {
		if o.OnHand != nil && *o.OnHand <= 0 {
			out.StockoutDays++
		}
		d := o.Demand
		if math.IsNaN(d) || d < 0 {
			d = 0
		}
		total += d
		if o.Date.IsZero() {
			continue
		}
		m := months[o.Date.Month()]
		if m == nil {
			m = &acc{}
			months[o.Date.Month()] = m
		}
		m.sum += d
		m.n++
	}

	out.MonthsObserved = len(months)
	overall := total / float64(len(history))
	if len(months) < 2 || overall <= 0 {
		return out
	}

	maxMean, minMean := math.Inf(-1), math.Inf(1)
	for month := time.January; month <= time.December; month++ {
		m, ok := months[month]
		if !ok {
			continue
		}
		mean := m.sum / float64(m.n)
		if mean > maxMean {
			maxMean = mean
			out.PeakMonth = month
		}
		if mean < minMean {
			minMean = mean
		}
	}
	out.SeasonalityStrength = roundFloat((maxMean-minMean)/overall, 3)
	return out
}

// RecommendationInput is everything the generator looks at.
type RecommendationInput struct {
	CurrentStock  float64
	Category      Category
	LeadTimeDays  float64
	UnitCost      float64
	OrderQuantity float64
	ReorderPoint  float64
	SafetyStock   float64
	Insights      *HistoricalInsights
}

// RecommendationRules are the tunable thresholds of the generator.
type RecommendationRules struct {
	ApproachingReorderFactor float64
	LongLeadTimeDays         float64
	SafetyStockRatio         float64
	SeasonalityThreshold     float64
	MaxRecommendations       int
}

// DefaultRecommendationRules returns the built-in thresholds.
func DefaultRecommendationRules() RecommendationRules {
	return RecommendationRules{
		ApproachingReorderFactor: 1.2,
		LongLeadTimeDays:         14,
		SafetyStockRatio:         0.5,
		SeasonalityThreshold:     0.3,
		MaxRecommendations:       5,
	}
}

// Recommend builds the ordered advisory list: stock position first, then
// ABC guidance, sourcing, safety-stock sizing and historical patterns.
// The list is truncated to rules.MaxRecommendations.
func Recommend(in RecommendationInput, rules RecommendationRules) []string {
	recs := make([]string, 0, 6)

	// 1-2. Stock position against the reorder point
	switch {
	case in.CurrentStock < in.ReorderPoint:
		recs = append(recs, fmt.Sprintf(
			"URGENT: current stock (%s) is below the reorder point (%s). Order %s units now (estimated cost %s).",
			units(in.CurrentStock), units(in.ReorderPoint), units(math.Ceil(in.OrderQuantity)),
			money(math.Ceil(in.OrderQuantity), in.UnitCost)))
	case in.ReorderPoint > 0 && in.CurrentStock < in.ReorderPoint*rules.ApproachingReorderFactor:
		recs = append(recs, fmt.Sprintf(
			"Stock is approaching the reorder point (%s of %s units). Plan an order of %s units.",
			units(in.CurrentStock), units(in.ReorderPoint), units(math.Ceil(in.OrderQuantity))))
	}

	// 3. ABC guidance
	switch in.Category {
	case CategoryA:
		recs = append(recs, "Category A item: apply tight inventory control with frequent reviews and consider vendor-managed inventory (VMI).")
	case CategoryB:
		recs = append(recs, "Category B item: use a periodic review system (monthly) with moderate safety stock.")
	case CategoryC:
		recs = append(recs, "Category C item: order in bulk to reduce ordering costs.")
	case CategoryD:
		recs = append(recs, "Category D item: no measurable consumption value; review whether it should stay in stock.")
	}

	// 4. Sourcing
	if in.LeadTimeDays > rules.LongLeadTimeDays {
		recs = append(recs, fmt.Sprintf(
			"Long lead time (%s days): qualify alternative or local suppliers to reduce replenishment risk.",
			units(in.LeadTimeDays)))
	}

	// 5. Safety-stock sizing
	if in.OrderQuantity > 0 && in.SafetyStock > in.OrderQuantity*rules.SafetyStockRatio {
		recs = append(recs, fmt.Sprintf(
			"Safety stock (%s) is large relative to the order quantity (%s): review demand variability and supplier reliability.",
			units(in.SafetyStock), units(in.OrderQuantity)))
	}

	// 6. Historical patterns
	if in.Insights != nil {
		if in.Insights.StockoutDays > 0 {
			recs = append(recs, fmt.Sprintf(
				"History shows %d stockout day(s): consider a higher service level for this item.",
				in.Insights.StockoutDays))
		}
		if in.Insights.SeasonalityStrength >= rules.SeasonalityThreshold && in.Insights.PeakMonth != 0 {
			recs = append(recs, fmt.Sprintf(
				"Seasonal demand pattern detected (peak in %s): increase order quantities ahead of the peak.",
				in.Insights.PeakMonth))
		}
	}

	limit := rules.MaxRecommendations
	if limit <= 0 {
		limit = 5
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// decimal.NewFromFloat panics on NaN and Inf.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func units(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Round(1).String()
}

func money(qty, unitCost float64) string {
	if !finite(qty) || !finite(unitCost) {
		return "n/a"
	}
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(unitCost)).StringFixed(2)
}

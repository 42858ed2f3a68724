package optimizer

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeDemandStats(t *testing.T) {
	testCases := []struct {
		name     string
		series   []float64
		mean     float64
		annual   float64
		zeroStd  bool
		terminal bool
	}{
		{"empty", nil, 0, 0, true, true},
		{"all zeros", []float64{0, 0, 0}, 0, 0, true, true},
		{"negative floored", []float64{-5, -1}, 0, 0, true, true},
		{"single observation", []float64{4}, 4, 4 * 365, true, false},
		{"constant", []float64{10, 10, 10, 10}, 10, 3650, true, false},
		{"dirty values", []float64{1, 2, 3, math.NaN(), -1}, 1.2, 1.2 * 365, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ComputeDemandStats(tc.series, DaysPerYear)
			if !approx(s.Mean, tc.mean, 1e-9) {
				t.Errorf("Expected mean %v, got %v", tc.mean, s.Mean)
			}
			if !approx(s.Annualized, tc.annual, 1e-6) {
				t.Errorf("Expected annualized %v, got %v", tc.annual, s.Annualized)
			}
			if tc.zeroStd && s.Std != 0 {
				t.Errorf("Expected zero std, got %v", s.Std)
			}
			if !tc.zeroStd && s.Std <= 0 {
				t.Errorf("Expected positive std, got %v", s.Std)
			}
			if s.IsZero() != tc.terminal {
				t.Errorf("Expected IsZero %v, got %v", tc.terminal, s.IsZero())
			}
		})
	}
}

func TestCleanDemandDoesNotMutateInput(t *testing.T) {
	in := []float64{-1, 2, math.NaN()}
	out := CleanDemand(in)
	if in[0] != -1 || !math.IsNaN(in[2]) {
		t.Fatalf("input modified: %v", in)
	}
	if out[0] != 0 || out[1] != 2 || out[2] != 0 {
		t.Errorf("unexpected cleaned series %v", out)
	}
}

func TestEOQ(t *testing.T) {
	// 1000/yr, 10 per unit, 50 per order, 20% holding rate
	got := EOQ(1000, 10, 50, 0.20, nil)
	if !approx(got, math.Sqrt(50000), 1e-9) || !approx(got, 223.6, 0.01) {
		t.Errorf("Expected EOQ ~223.6, got %v", got)
	}

	override := 4.0
	if got := EOQ(1000, 10, 50, 0.20, &override); !approx(got, math.Sqrt(2*1000*50/4.0), 1e-9) {
		t.Errorf("Expected holding override to be used, got %v", got)
	}

	if got := EOQ(1200, 0, 50, 0.20, nil); got != 100 {
		t.Errorf("Expected monthly fallback 100 for zero holding cost, got %v", got)
	}

	if got := EOQ(10, 1000, 0.01, 0.5, nil); got != 1 {
		t.Errorf("Expected EOQ floored at 1, got %v", got)
	}
}

func TestEOQNonPositiveDemandIsZero(t *testing.T) {
	zero := 0.0
	for _, d := range []float64{0, -1, -1000, math.NaN()} {
		if got := EOQ(d, 10, 50, 0.2, nil); got != 0 {
			t.Errorf("EOQ(%v) = %v, want 0", d, got)
		}
		// demand check precedes the holding-cost guard
		if got := EOQ(d, 10, 50, 0.2, &zero); got != 0 {
			t.Errorf("EOQ(%v) with zero holding = %v, want 0", d, got)
		}
	}
}

func TestEOQAtLeastOneForPositiveDemand(t *testing.T) {
	for _, d := range []float64{0.001, 0.5, 1, 12, 365, 1e6} {
		for _, s := range []float64{0.01, 1, 50, 1000} {
			for _, unit := range []float64{0.01, 1, 100, 1e5} {
				if got := EOQ(d, unit, s, 0.25, nil); got < 1 {
					t.Fatalf("EOQ(%v, %v, %v) = %v, want >= 1", d, unit, s, got)
				}
			}
		}
	}
}

func TestReorderPointSafetyStock(t *testing.T) {
	p := ReorderPointSafetyStock(10, 2, 7, 0.95)
	if !approx(p.ZScore, 1.645, 0.001) {
		t.Errorf("Expected z ~1.645, got %v", p.ZScore)
	}
	if !approx(p.SafetyStock, 8.7, 0.05) {
		t.Errorf("Expected safety stock ~8.7, got %v", p.SafetyStock)
	}
	if !approx(p.ReorderPoint, 78.7, 0.05) {
		t.Errorf("Expected reorder point ~78.7, got %v", p.ReorderPoint)
	}
	if !approx(p.LeadTimeDemandStdDev, 2*math.Sqrt(7), 1e-9) {
		t.Errorf("Expected lead time std %v, got %v", 2*math.Sqrt(7), p.LeadTimeDemandStdDev)
	}
}

func TestReorderPointClampsInvalidInputs(t *testing.T) {
	testCases := []struct {
		name             string
		mean, std, lead  float64
		serviceLevel     float64
		wantServiceLevel float64
	}{
		{"service level above one", 10, 2, 7, 1.5, 0.999},
		{"service level negative", 10, 2, 7, -0.3, 0.001},
		{"service level NaN", 10, 2, 7, math.NaN(), 0.001},
		{"negative lead time", 10, 2, -3, 0.95, 0.95},
		{"negative std", 10, -2, 7, 0.95, 0.95},
		{"negative mean", -10, 2, 7, 0.2, 0.2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := ReorderPointSafetyStock(tc.mean, tc.std, tc.lead, tc.serviceLevel)
			if p.SafetyStock < 0 || p.ReorderPoint < 0 {
				t.Errorf("negative policy: ss=%v rop=%v", p.SafetyStock, p.ReorderPoint)
			}
			if p.ServiceLevel != tc.wantServiceLevel {
				t.Errorf("Expected service level %v, got %v", tc.wantServiceLevel, p.ServiceLevel)
			}
		})
	}
}

func TestSafetyStockMonotoneInServiceLevel(t *testing.T) {
	levels := []float64{0.001, 0.1, 0.5, 0.8, 0.9, 0.95, 0.99, 0.999, 1.2}
	prev := ReorderPointSafetyStock(10, 3, 5, 0)
	for _, sl := range levels {
		cur := ReorderPointSafetyStock(10, 3, 5, sl)
		if cur.SafetyStock < prev.SafetyStock || cur.ReorderPoint < prev.ReorderPoint {
			t.Fatalf("service level %v decreased policy: %+v -> %+v", sl, prev, cur)
		}
		prev = cur
	}

	low := ReorderPointSafetyStock(10, 3, 5, 0.90)
	high := ReorderPointSafetyStock(10, 3, 5, 0.999)
	if !(low.SafetyStock < high.SafetyStock) {
		t.Errorf("Expected 0.90 safety stock < 0.999 safety stock, got %v >= %v", low.SafetyStock, high.SafetyStock)
	}
}

func TestExpectedShortage(t *testing.T) {
	if got := ExpectedShortage(0, 1.645); got != 0 {
		t.Errorf("deterministic demand should never run short, got %v", got)
	}
	// G(0) = φ(0) ≈ 0.39894
	if got := ExpectedShortage(10, 0); got != 3.99 {
		t.Errorf("Expected 3.99, got %v", got)
	}
	// far tail: survival underflows and the loss collapses to ~0
	if got := ExpectedShortage(10, 40); got != 0 {
		t.Errorf("Expected 0 in the far tail, got %v", got)
	}
	if got := ExpectedShortage(10, -2); got < 19.9 {
		t.Errorf("Expected ~20 units short at z=-2, got %v", got)
	}
}

func TestCalculatorsArePure(t *testing.T) {
	a1 := EOQ(3650, 12.5, 40, 0.25, nil)
	a2 := EOQ(3650, 12.5, 40, 0.25, nil)
	b1 := ReorderPointSafetyStock(10, 2.5, 9, 0.97)
	b2 := ReorderPointSafetyStock(10, 2.5, 9, 0.97)
	c1 := ExpectedShortage(b1.LeadTimeDemandStdDev, b1.ZScore)
	c2 := ExpectedShortage(b2.LeadTimeDemandStdDev, b2.ZScore)
	if a1 != a2 || b1 != b2 || c1 != c2 {
		t.Errorf("calculators returned different outputs for identical inputs")
	}
}

func TestComputeCosts(t *testing.T) {
	q := EOQ(1000, 10, 50, 0.20, nil)
	c := computeCosts(1000, q, 0, 2, 50, 0, 0, DaysPerYear)
	// at the EOQ ordering and holding cost are equal
	if !approx(c.AnnualOrderingCost, c.AnnualHoldingCost, 0.011) {
		t.Errorf("Expected equal ordering and holding cost, got %v vs %v", c.AnnualOrderingCost, c.AnnualHoldingCost)
	}
	if !approx(c.TotalAnnualCost, 447.21, 0.02) {
		t.Errorf("Expected total ~447.21, got %v", c.TotalAnnualCost)
	}
	if c.AnnualShortageCost != 0 {
		t.Errorf("Expected no shortage cost, got %v", c.AnnualShortageCost)
	}
	if !approx(c.OrdersPerYear, 4.47, 0.001) {
		t.Errorf("Expected 4.47 orders per year, got %v", c.OrdersPerYear)
	}

	withShortage := computeCosts(1000, q, 10, 2, 50, 5, 2, DaysPerYear)
	if withShortage.AnnualShortageCost <= 0 || withShortage.TotalAnnualCost <= c.TotalAnnualCost {
		t.Errorf("Expected shortage cost to raise the total, got %+v", withShortage)
	}
}

func TestClassifyABC(t *testing.T) {
	items := []ItemValue{
		{ItemID: "gloves", Value: 5},
		{ItemID: "stents", Value: 50},
		{ItemID: "gauze", Value: 10},
		{ItemID: "syringes", Value: 30},
		{ItemID: "masks", Value: 5},
	}
	got := ClassifyABC(items, DefaultABCThresholds())

	want := map[string]Category{
		"stents":   CategoryA,
		"syringes": CategoryA,
		"gauze":    CategoryB,
		"gloves":   CategoryB,
		"masks":    CategoryC,
	}
	idx := got.Index()
	for id, cat := range want {
		if idx[id] != cat {
			t.Errorf("Expected %s in %s, got %s", id, cat, idx[id])
		}
	}

	// ties keep input order: gloves precedes masks
	if got[CategoryB][1].ItemID != "gloves" {
		t.Errorf("Expected stable tie order, got %+v", got[CategoryB])
	}
	if items[0].ItemID != "gloves" || items[1].ItemID != "stents" {
		t.Errorf("input slice was reordered")
	}
}

func TestClassifyABCPartition(t *testing.T) {
	items := make([]ItemValue, 0, 40)
	for i := 0; i < 40; i++ {
		v := float64((i*37)%23) * 1.5
		if i%9 == 0 {
			v = 0
		}
		items = append(items, ItemValue{ItemID: string(rune('A'+i%26)) + string(rune('a'+i/26)), Value: v})
	}
	got := ClassifyABC(items, DefaultABCThresholds())

	if got.Count() != len(items) {
		t.Fatalf("Expected %d classified items, got %d", len(items), got.Count())
	}
	seen := make(map[string]bool)
	var ordered []ClassifiedItem
	for _, cat := range []Category{CategoryA, CategoryB, CategoryC, CategoryD} {
		for _, it := range got[cat] {
			if seen[it.ItemID] {
				t.Fatalf("item %s in more than one bucket", it.ItemID)
			}
			seen[it.ItemID] = true
			ordered = append(ordered, it)
		}
	}
	byRank := make([]ClassifiedItem, len(ordered))
	for _, it := range ordered {
		byRank[it.Rank-1] = it
	}
	for i := 1; i < len(byRank); i++ {
		if byRank[i].CumulativePercentage < byRank[i-1].CumulativePercentage {
			t.Fatalf("cumulative percentage decreased at rank %d", i+1)
		}
	}
	for _, it := range got[CategoryD] {
		if it.Value > 0 {
			t.Errorf("positive value item %s ended in D", it.ItemID)
		}
	}
}

func TestClassifyABCDegenerate(t *testing.T) {
	for name, items := range map[string][]ItemValue{
		"empty":        nil,
		"all zero":     {{ItemID: "a"}, {ItemID: "b"}},
		"all negative": {{ItemID: "a", Value: -4}},
	} {
		t.Run(name, func(t *testing.T) {
			got := ClassifyABC(items, DefaultABCThresholds())
			if got.Count() != 0 {
				t.Errorf("Expected empty buckets, got %d items", got.Count())
			}
			for _, cat := range []Category{CategoryA, CategoryB, CategoryC, CategoryD} {
				if _, ok := got[cat]; !ok {
					t.Errorf("missing bucket %s", cat)
				}
			}
		})
	}

	single := ClassifyABC([]ItemValue{{ItemID: "only", Value: 9}}, DefaultABCThresholds())
	if single.CategoryOf("only") != CategoryC {
		t.Errorf("Expected single item at 100%% share in C, got %s", single.CategoryOf("only"))
	}
}

func TestClassifyABCInvalidThresholds(t *testing.T) {
	items := []ItemValue{{ItemID: "a", Value: 90}, {ItemID: "b", Value: 10}}
	got := ClassifyABC(items, ABCThresholds{A: 0.9, B: 0.5, C: 1})
	if got.CategoryOf("a") != CategoryA || got.CategoryOf("b") != CategoryC {
		t.Errorf("Expected default thresholds, got %v", got.Index())
	}
}

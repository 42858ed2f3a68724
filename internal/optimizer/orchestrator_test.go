package optimizer

import (
	"context"
	"math"
	"strings"
	"testing"
)

func constantForecast(days int, v float64) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = v
	}
	return out
}

// noisyForecast alternates around mean so the series has a real deviation.
func noisyForecast(days int, mean, spread float64) []float64 {
	out := make([]float64, days)
	for i := range out {
		switch i % 4 {
		case 0:
			out[i] = mean - spread
		case 1:
			out[i] = mean + spread
		case 2:
			out[i] = mean + spread/2
		default:
			out[i] = mean - spread/2
		}
	}
	return out
}

func standardRequest(id string) ItemRequest {
	return ItemRequest{
		ItemID:         id,
		DemandForecast: constantForecast(30, 10),
		Profile: ItemCostProfile{
			UnitCost:        10,
			LeadTimeDays:    7,
			HoldingCostRate: 0.20,
			OrderingCost:    50,
		},
		ServiceLevel: 0.95,
		Strategy:     StrategyStandard,
	}
}

func TestOptimizeStandard(t *testing.T) {
	o := New(DefaultConfig())
	res := o.Optimize(standardRequest("iv-set"))

	if res.Status != StatusSuccess || res.IsFallback {
		t.Fatalf("Expected success, got %s (%s)", res.Status, res.Message)
	}
	wantEOQ := roundFloat(math.Sqrt(2*3650*50/2.0), 2)
	if res.EconomicOrderQuantity != wantEOQ {
		t.Errorf("Expected EOQ %v, got %v", wantEOQ, res.EconomicOrderQuantity)
	}
	// constant demand: no safety stock, reorder at lead-time demand
	if res.SafetyStock != 0 || res.ReorderPoint != 70 || res.ExpectedShortagePerCycle != 0 {
		t.Errorf("unexpected policy ss=%v rop=%v short=%v", res.SafetyStock, res.ReorderPoint, res.ExpectedShortagePerCycle)
	}
	if res.TargetInventoryLevel != roundFloat(wantEOQ, 2) {
		t.Errorf("Expected target level %v, got %v", wantEOQ, res.TargetInventoryLevel)
	}
	if res.AnnualDemand != 3650 || res.AchievedServiceLevel != 0.95 {
		t.Errorf("unexpected annual demand %v or service level %v", res.AnnualDemand, res.AchievedServiceLevel)
	}
	if res.Costs == nil || res.Costs.TotalAnnualCost <= 0 {
		t.Errorf("Expected a cost breakdown, got %+v", res.Costs)
	}
	if len(res.Recommendations) == 0 || !strings.HasPrefix(res.Recommendations[0], "URGENT") {
		t.Errorf("Expected an urgent reorder with zero stock, got %v", res.Recommendations)
	}
}

func TestOptimizeDefaultsHoldingRateAndStrategy(t *testing.T) {
	req := standardRequest("sutures")
	req.Strategy = ""
	req.Profile.HoldingCostRate = 0
	req.ServiceLevel = 0

	res := New(DefaultConfig()).Optimize(req)
	if res.Strategy != StrategyStandard {
		t.Errorf("Expected standard strategy, got %s", res.Strategy)
	}
	want := roundFloat(math.Sqrt(2*3650*50/2.5), 2)
	if res.EconomicOrderQuantity != want {
		t.Errorf("Expected EOQ with default 25%% holding rate %v, got %v", want, res.EconomicOrderQuantity)
	}
	if res.AchievedServiceLevel != 0.95 {
		t.Errorf("Expected default service level 0.95, got %v", res.AchievedServiceLevel)
	}
}

func TestOptimizeClampsServiceLevel(t *testing.T) {
	req := standardRequest("catheter")
	req.ServiceLevel = 1.5
	req.DemandForecast = noisyForecast(60, 10, 4)
	req.Profile.LeadTimeDays = -4

	res := New(DefaultConfig()).Optimize(req)
	if res.Status != StatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", res.Status, res.Message)
	}
	if !(res.AchievedServiceLevel > 0 && res.AchievedServiceLevel < 1) {
		t.Errorf("Expected clamped service level in (0, 1), got %v", res.AchievedServiceLevel)
	}
	if res.SafetyStock < 0 || res.ReorderPoint < 0 {
		t.Errorf("negative policy ss=%v rop=%v", res.SafetyStock, res.ReorderPoint)
	}
}

func TestOptimizeZeroDemand(t *testing.T) {
	req := standardRequest("unused")
	req.DemandForecast = constantForecast(30, 0)

	res := New(DefaultConfig()).Optimize(req)
	if res.Status != StatusError || res.Reason != ReasonInvalidAnnualDemand {
		t.Fatalf("Expected invalid_annual_demand error, got %s/%s", res.Status, res.Reason)
	}
	if res.EconomicOrderQuantity != 0 || res.ReorderPoint != 0 || res.SafetyStock != 0 ||
		res.ExpectedShortagePerCycle != 0 || res.AnnualDemand != 0 {
		t.Errorf("Expected zeroed numeric fields, got %+v", res)
	}
	if res.Message == "" || res.Recommendations == nil {
		t.Errorf("Expected message and empty recommendations, got %+v", res)
	}
}

func TestOptimizeFailureReasons(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*ItemRequest)
		reason FailureReason
	}{
		{"empty forecast", func(r *ItemRequest) { r.DemandForecast = nil }, ReasonEmptyForecast},
		{"non-finite unit cost", func(r *ItemRequest) { r.Profile.UnitCost = math.NaN() }, ReasonException},
		{"negative unit cost", func(r *ItemRequest) { r.Profile.UnitCost = -3 }, ReasonException},
		{"unknown strategy", func(r *ItemRequest) { r.Strategy = "magic" }, ReasonException},
		{"empty jit forecast", func(r *ItemRequest) {
			r.Strategy = StrategyJIT
			r.DemandForecast = []float64{}
		}, ReasonEmptyForecast},
	}

	o := New(DefaultConfig())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := standardRequest("x")
			tc.mutate(&req)
			res := o.Optimize(req)
			if res.Status != StatusError || res.Reason != tc.reason {
				t.Errorf("Expected error/%s, got %s/%s (%s)", tc.reason, res.Status, res.Reason, res.Message)
			}
			if res.OK() {
				t.Errorf("failed result reported OK")
			}
		})
	}
}

func TestOptimizeMultiCriteria(t *testing.T) {
	req := standardRequest("ventilator-filter")
	req.Strategy = StrategyMultiCriteria
	req.DemandForecast = noisyForecast(90, 12, 5)

	res := New(DefaultConfig()).Optimize(req)
	if !res.OK() {
		t.Fatalf("Expected an optimized result, got %s (%s)", res.Status, res.Message)
	}
	if res.EconomicOrderQuantity < 1 || res.SafetyStock < 0 || res.ReorderPoint < 0 {
		t.Errorf("invalid policy %+v", res)
	}
	if res.AchievedServiceLevel < 0.95-1e-6 {
		t.Errorf("service level %v below the requested minimum", res.AchievedServiceLevel)
	}
	if res.Status == StatusSuccess && res.MultiCriteria == nil {
		t.Errorf("Expected multi-criteria details on success")
	}
}

func TestOptimizeMultiCriteriaFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-15
	o := New(cfg)

	req := standardRequest("ventilator-filter")
	req.Strategy = StrategyMultiCriteria
	req.DemandForecast = noisyForecast(90, 12, 5)

	res := o.Optimize(req)
	if res.Status != StatusFallback || !res.IsFallback || res.Reason != ReasonOptimizerNonConverge {
		t.Fatalf("Expected fallback, got %s/%s fallback=%v", res.Status, res.Reason, res.IsFallback)
	}
	if !res.OK() {
		t.Errorf("fallback result should count as optimized")
	}

	// the fallback is the closed-form policy at the minimum service level
	req.Strategy = StrategyStandard
	std := o.Optimize(req)
	if res.EconomicOrderQuantity != std.EconomicOrderQuantity || res.SafetyStock != std.SafetyStock ||
		res.ReorderPoint != std.ReorderPoint {
		t.Errorf("fallback %+v differs from standard %+v", res, std)
	}
	if res.MultiCriteria != nil {
		t.Errorf("fallback should not carry solver details")
	}
}

func TestOptimizeJIT(t *testing.T) {
	req := standardRequest("saline")
	req.Strategy = StrategyJIT
	req.Profile.LeadTimeDays = 3

	res := New(DefaultConfig()).Optimize(req)
	if res.Status != StatusSuccess || res.JIT == nil {
		t.Fatalf("Expected JIT success, got %s (%s)", res.Status, res.Message)
	}
	if res.EconomicOrderQuantity != 84 || res.SafetyStock != 6 || res.ReorderPoint != 36 {
		t.Errorf("unexpected JIT policy q=%v ss=%v rop=%v", res.EconomicOrderQuantity, res.SafetyStock, res.ReorderPoint)
	}
	if res.JIT.OrderFrequencyDays != 7 || res.JIT.BufferPercentage != 0.2 {
		t.Errorf("Expected configured JIT defaults, got %+v", res.JIT)
	}
	if !approx(res.AchievedServiceLevel, 1/1.2, 1e-6) {
		t.Errorf("Expected service level %v, got %v", 1/1.2, res.AchievedServiceLevel)
	}
}

func TestOptimizeBatchIsolatesFailures(t *testing.T) {
	reqs := []ItemRequest{standardRequest("gloves"), standardRequest("masks"), standardRequest("gowns")}
	reqs[1].DemandForecast = nil

	batch := New(DefaultConfig()).OptimizeBatch(context.Background(), reqs)

	if len(batch.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(batch.Results))
	}
	for i, r := range batch.Results {
		if r.ItemID != reqs[i].ItemID {
			t.Errorf("result %d: expected %s, got %s", i, reqs[i].ItemID, r.ItemID)
		}
	}
	if batch.Results[1].Status != StatusError || batch.Results[1].Reason != ReasonEmptyForecast {
		t.Errorf("Expected item 2 to fail with empty_forecast, got %s/%s", batch.Results[1].Status, batch.Results[1].Reason)
	}
	if batch.Results[0].Status != StatusSuccess || batch.Results[2].Status != StatusSuccess {
		t.Errorf("Expected items 1 and 3 to succeed")
	}
	if batch.Analyzed != 2 || batch.Failed != 1 || batch.Fallbacks != 0 {
		t.Errorf("unexpected counts analyzed=%d failed=%d fallbacks=%d", batch.Analyzed, batch.Failed, batch.Fallbacks)
	}
	if batch.RunID == "" || batch.CompletedAt.Before(batch.StartedAt) {
		t.Errorf("unexpected run metadata %q %v %v", batch.RunID, batch.StartedAt, batch.CompletedAt)
	}
	if batch.Classification.CategoryOf("masks") != CategoryD {
		t.Errorf("Expected zero-value item in D, got %s", batch.Classification.CategoryOf("masks"))
	}
}

func TestOptimizeBatchNonFiniteInputs(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*ItemRequest)
	}{
		{"negative infinite stock", func(r *ItemRequest) { r.CurrentStockLevel = math.Inf(-1) }},
		{"infinite stock", func(r *ItemRequest) { r.CurrentStockLevel = math.Inf(1) }},
		{"infinite order frequency", func(r *ItemRequest) { r.Strategy = StrategyJIT; r.OrderFrequencyDays = math.Inf(1) }},
		{"NaN weight", func(r *ItemRequest) {
			r.Strategy = StrategyMultiCriteria
			r.Weights = &Weights{Holding: math.NaN(), Ordering: 1, ServiceLevel: 1}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bad := standardRequest("bad")
			tc.mutate(&bad)

			batch := New(DefaultConfig()).OptimizeBatch(context.Background(), []ItemRequest{standardRequest("good"), bad})
			if len(batch.Results) != 2 {
				t.Fatalf("Expected 2 results, got %d", len(batch.Results))
			}
			if batch.Results[0].Status != StatusSuccess {
				t.Errorf("Expected the finite item to succeed, got %s", batch.Results[0].Status)
			}
			r := batch.Results[1]
			if r.Status != StatusError || r.Reason != ReasonException || !strings.Contains(r.Message, "not a finite number") {
				t.Errorf("Expected an exception result, got %s/%s %q", r.Status, r.Reason, r.Message)
			}
			if r.EconomicOrderQuantity != 0 || r.ReorderPoint != 0 {
				t.Errorf("Expected zeroed numbers, got %+v", r)
			}
		})
	}
}

func TestRecommendationFormattingNonFinite(t *testing.T) {
	if got := units(math.Inf(-1)); got != "n/a" {
		t.Errorf("Expected n/a, got %q", got)
	}
	if got := money(math.NaN(), 10); got != "n/a" {
		t.Errorf("Expected n/a, got %q", got)
	}
	if got := money(25, 10); got != "250.00" {
		t.Errorf("Expected 250.00, got %q", got)
	}
	if c := computeCosts(1000, math.Inf(1), 0, 2, 50, 0, 0, 365); *c != (CostBreakdown{}) {
		t.Errorf("Expected an empty breakdown, got %+v", c)
	}
}

func TestOptimizeBatchABCCategories(t *testing.T) {
	reqs := []ItemRequest{standardRequest("pacemaker"), standardRequest("swabs"), standardRequest("tape")}
	// consumption values 292000, 36500, 36500: shares 0.8, 0.9, 1.0
	reqs[0].Profile.UnitCost = 80
	reqs[1].Profile.UnitCost = 10
	reqs[2].Profile.UnitCost = 10
	reqs[2].ABCCategory = CategoryA

	batch := New(DefaultConfig()).OptimizeBatch(context.Background(), reqs)

	if got := batch.Results[0].ABCCategory; got != CategoryA {
		t.Errorf("Expected pacemaker in A, got %s", got)
	}
	if got := batch.Results[1].ABCCategory; got != CategoryB {
		t.Errorf("Expected swabs in B, got %s", got)
	}
	if got := batch.Results[2].ABCCategory; got != CategoryA {
		t.Errorf("Expected the assigned category to win, got %s", got)
	}
}

func TestOptimizeBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := New(DefaultConfig()).OptimizeBatch(ctx, []ItemRequest{standardRequest("a"), standardRequest("b")})
	if len(batch.Results) != 2 || batch.Failed != 2 {
		t.Fatalf("Expected 2 failed results, got %d results and %d failures", len(batch.Results), batch.Failed)
	}
	for _, r := range batch.Results {
		if r.Reason != ReasonException {
			t.Errorf("Expected exception reason, got %s", r.Reason)
		}
	}
}

func TestNewFillsConfigDefaults(t *testing.T) {
	cfg := New(Config{Workers: 2}).Config()
	d := DefaultConfig()
	if cfg.Workers != 2 {
		t.Errorf("Expected explicit workers to be kept, got %d", cfg.Workers)
	}
	if cfg.DefaultServiceLevel != d.DefaultServiceLevel || cfg.MaxIterations != d.MaxIterations ||
		cfg.ABCThresholds != d.ABCThresholds || cfg.Rules != d.Rules {
		t.Errorf("Expected defaults to be filled, got %+v", cfg)
	}
}

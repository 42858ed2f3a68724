package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the calculators for one item or a batch of items.
// It is stateless apart from its Config and safe for concurrent use.
type Orchestrator struct {
	cfg Config
}

// New creates an Orchestrator. Zero config fields take built-in defaults.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Classify runs the ABC classifier with the configured thresholds.
func (o *Orchestrator) Classify(items []ItemValue) Classification {
	return ClassifyABC(items, o.cfg.ABCThresholds)
}

// Optimize computes the policy of a single item. It never fails: errors are
// reported through the Status, Reason and Message of the result.
func (o *Orchestrator) Optimize(req ItemRequest) OptimizationResult {
	return o.optimizeItem(req, "")
}

// OptimizeBatch classifies all items (ABC needs the full value distribution,
// so it runs first) and then optimizes them concurrently. Results keep the
// input order and every request gets exactly one result.
func (o *Orchestrator) OptimizeBatch(ctx context.Context, reqs []ItemRequest) BatchResult {
	batch := BatchResult{
		RunID:     uuid.NewString(),
		Results:   make([]OptimizationResult, len(reqs)),
		StartedAt: time.Now().UTC(),
	}

	batch.Classification = o.Classify(o.consumptionValues(reqs))
	categories := batch.Classification.Index()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i := range reqs {
		if err := gctx.Err(); err != nil {
			batch.Results[i] = o.failed(reqs[i], itemErr(ReasonException, err))
			continue
		}
		g.Go(func() error {
			batch.Results[i] = o.optimizeItem(reqs[i], categories[reqs[i].ItemID])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range batch.Results {
		switch r.Status {
		case StatusSuccess:
			batch.Analyzed++
		case StatusFallback:
			batch.Analyzed++
			batch.Fallbacks++
		default:
			batch.Failed++
		}
	}
	batch.CompletedAt = time.Now().UTC()

	log.Info().
		Str("run_id", batch.RunID).
		Int("items", len(reqs)).
		Int("analyzed", batch.Analyzed).
		Int("fallbacks", batch.Fallbacks).
		Int("failed", batch.Failed).
		Dur("elapsed", batch.CompletedAt.Sub(batch.StartedAt)).
		Msg("optimization batch completed")

	return batch
}

// consumptionValues derives the ABC input (annual demand * unit cost) of each request.
func (o *Orchestrator) consumptionValues(reqs []ItemRequest) []ItemValue {
	items := make([]ItemValue, 0, len(reqs))
	for _, r := range reqs {
		stats := ComputeDemandStats(r.DemandForecast, o.cfg.DaysPerYear)
		items = append(items, ItemValue{
			ItemID: r.ItemID,
			Name:   r.Name,
			Value:  AnnualConsumptionValue(stats.Annualized, r.Profile.UnitCost),
		})
	}
	return items
}

func (o *Orchestrator) optimizeItem(req ItemRequest, computed Category) OptimizationResult {
	category := computed
	if req.ABCCategory != "" {
		category = req.ABCCategory
	}

	res, err := o.run(req, category)
	if err != nil {
		failed := o.failed(req, err)
		failed.ABCCategory = category
		log.Warn().
			Str("item_id", req.ItemID).
			Str("strategy", string(failed.Strategy)).
			Str("reason", string(failed.Reason)).
			Err(err).
			Msg("item optimization failed")
		return failed
	}
	return res
}

// failed builds the zeroed result of a failed item.
func (o *Orchestrator) failed(req ItemRequest, err error) OptimizationResult {
	reason := ReasonException
	var ie *ItemError
	if errors.As(err, &ie) {
		reason = ie.Reason
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyStandard
	}
	return OptimizationResult{
		ItemID:          req.ItemID,
		Strategy:        strategy,
		Status:          StatusError,
		Reason:          reason,
		Message:         err.Error(),
		Recommendations: []string{},
	}
}

// itemInputs are the validated, defaulted inputs shared by every strategy.
type itemInputs struct {
	stats          DemandStats
	serviceLevel   float64
	leadTime       float64
	holdingPerUnit float64
	holdingRate    float64
}

func (o *Orchestrator) prepare(req ItemRequest) (itemInputs, error) {
	p := req.Profile
	numbers := map[string]float64{
		"unit_cost":            p.UnitCost,
		"ordering_cost":        p.OrderingCost,
		"holding_rate":         p.HoldingCostRate,
		"shortage_cost":        p.ShortageCost,
		"lead_time":            p.LeadTimeDays,
		"current_stock_level":  req.CurrentStockLevel,
		"order_frequency_days": req.OrderFrequencyDays,
		"buffer_percentage":    req.BufferPercentage,
	}
	if w := req.Weights; w != nil {
		numbers["weights.holding"] = w.Holding
		numbers["weights.ordering"] = w.Ordering
		numbers["weights.service_level"] = w.ServiceLevel
	}
	for name, v := range numbers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return itemInputs{}, itemErr(ReasonException, fmt.Errorf("%w: %s is not a finite number", ErrInvalidProfile, name))
		}
	}
	if p.UnitCost < 0 {
		return itemInputs{}, itemErr(ReasonException, fmt.Errorf("%w: unit_cost is negative", ErrInvalidProfile))
	}
	if p.HoldingCostPerUnitPerYear != nil && (math.IsNaN(*p.HoldingCostPerUnitPerYear) || math.IsInf(*p.HoldingCostPerUnitPerYear, 0)) {
		return itemInputs{}, itemErr(ReasonException, fmt.Errorf("%w: holding cost override is not a finite number", ErrInvalidProfile))
	}

	if len(req.DemandForecast) == 0 {
		return itemInputs{}, itemErr(ReasonEmptyForecast, ErrEmptyForecast)
	}
	stats := ComputeDemandStats(req.DemandForecast, o.cfg.DaysPerYear)
	if stats.IsZero() {
		return itemInputs{}, itemErr(ReasonInvalidAnnualDemand, ErrInvalidAnnualDemand)
	}

	level := req.ServiceLevel
	if level == 0 {
		level = o.cfg.DefaultServiceLevel
	}
	rate := p.HoldingCostRate
	if rate == 0 {
		rate = o.cfg.DefaultHoldingCostRate
	}

	return itemInputs{
		stats:          stats,
		serviceLevel:   ClampServiceLevel(level),
		leadTime:       math.Max(0, p.LeadTimeDays),
		holdingRate:    rate,
		holdingPerUnit: AnnualHoldingCost(p.UnitCost, rate, p.HoldingCostPerUnitPerYear),
	}, nil
}

func (o *Orchestrator) run(req ItemRequest, category Category) (OptimizationResult, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyStandard
	}

	in, err := o.prepare(req)
	if err != nil {
		return OptimizationResult{}, err
	}

	var res OptimizationResult
	switch strategy {
	case StrategyStandard:
		res = o.standard(req, in, in.serviceLevel)
	case StrategyMultiCriteria:
		res, err = o.multiCriteria(req, in)
	case StrategyJIT:
		res, err = o.jit(req, in)
	default:
		err = itemErr(ReasonException, fmt.Errorf("unknown optimization strategy %q", strategy))
	}
	if err != nil {
		return OptimizationResult{}, err
	}

	res.ItemID = req.ItemID
	res.Strategy = strategy
	res.ABCCategory = category
	res.AnnualDemand = roundFloat(in.stats.Annualized, 2)
	res.MeanDailyDemand = roundFloat(in.stats.Mean, 4)
	res.StdDailyDemand = roundFloat(in.stats.Std, 4)

	var insights *HistoricalInsights
	if len(req.History) > 0 {
		h := AnalyzeHistory(req.History)
		insights = &h
	}
	res.Recommendations = Recommend(RecommendationInput{
		CurrentStock:  req.CurrentStockLevel,
		Category:      category,
		LeadTimeDays:  in.leadTime,
		UnitCost:      req.Profile.UnitCost,
		OrderQuantity: res.EconomicOrderQuantity,
		ReorderPoint:  res.ReorderPoint,
		SafetyStock:   res.SafetyStock,
		Insights:      insights,
	}, o.cfg.Rules)

	return res, nil
}

// standard is the classical EOQ / ROP / safety-stock path.
func (o *Orchestrator) standard(req ItemRequest, in itemInputs, serviceLevel float64) OptimizationResult {
	p := req.Profile
	eoq := EOQ(in.stats.Annualized, p.UnitCost, p.OrderingCost, in.holdingRate, p.HoldingCostPerUnitPerYear)
	policy := ReorderPointSafetyStock(in.stats.Mean, in.stats.Std, in.leadTime, serviceLevel)
	shortage := ExpectedShortage(policy.LeadTimeDemandStdDev, policy.ZScore)

	return OptimizationResult{
		Status:                   StatusSuccess,
		EconomicOrderQuantity:    roundFloat(eoq, 2),
		ReorderPoint:             roundFloat(policy.ReorderPoint, 2),
		SafetyStock:              roundFloat(policy.SafetyStock, 2),
		TargetInventoryLevel:     roundFloat(policy.SafetyStock+eoq, 2),
		ExpectedShortagePerCycle: shortage,
		AchievedServiceLevel:     policy.ServiceLevel,
		Costs: computeCosts(in.stats.Annualized, eoq, policy.SafetyStock, in.holdingPerUnit,
			p.OrderingCost, p.ShortageCost, shortage, o.cfg.DaysPerYear),
	}
}

// multiCriteria optimizes (q, z) jointly and falls back to the standard path
// at the minimum service level when the solver does not converge.
func (o *Orchestrator) multiCriteria(req ItemRequest, in itemInputs) (OptimizationResult, error) {
	p := req.Profile
	weights := o.cfg.Weights
	if req.Weights != nil {
		weights = req.Weights.Normalize()
	}
	start := EOQ(in.stats.Annualized, p.UnitCost, p.OrderingCost, in.holdingRate, p.HoldingCostPerUnitPerYear)

	sol, err := OptimizeMultiCriteria(MultiCriteriaInput{
		AnnualDemand:    in.stats.Annualized,
		StdDaily:        in.stats.Std,
		LeadTimeDays:    in.leadTime,
		UnitCost:        p.UnitCost,
		HoldingPerUnit:  in.holdingPerUnit,
		OrderingCost:    p.OrderingCost,
		MinServiceLevel: in.serviceLevel,
		MaxServiceLevel: o.cfg.MaxServiceLevel,
		Weights:         weights,
		StartQuantity:   start,
	}, SolverOptions{MaxIterations: o.cfg.MaxIterations, Tolerance: o.cfg.Tolerance})

	if errors.Is(err, ErrNonConvergence) {
		log.Info().
			Str("item_id", req.ItemID).
			Int("iterations", sol.Iterations).
			Msg("multi-criteria optimizer did not converge, using closed-form fallback")
		res := o.standard(req, in, in.serviceLevel)
		res.Status = StatusFallback
		res.IsFallback = true
		res.Reason = ReasonOptimizerNonConverge
		res.Message = err.Error()
		return res, nil
	}
	if err != nil {
		if errors.Is(err, ErrInvalidAnnualDemand) {
			return OptimizationResult{}, itemErr(ReasonInvalidAnnualDemand, err)
		}
		return OptimizationResult{}, itemErr(ReasonException, err)
	}

	q := sol.OrderQuantity
	safety := math.Max(0, sol.Z*sol.SigmaLeadTime)
	rop := math.Max(0, in.stats.Mean*in.leadTime+safety)
	shortage := ExpectedShortage(sol.SigmaLeadTime, sol.Z)

	return OptimizationResult{
		Status:                   StatusSuccess,
		EconomicOrderQuantity:    roundFloat(q, 2),
		ReorderPoint:             roundFloat(rop, 2),
		SafetyStock:              roundFloat(safety, 2),
		TargetInventoryLevel:     roundFloat(safety+q, 2),
		ExpectedShortagePerCycle: shortage,
		AchievedServiceLevel:     roundFloat(sol.ServiceLevel, 6),
		Costs: computeCosts(in.stats.Annualized, q, safety, in.holdingPerUnit,
			p.OrderingCost, p.ShortageCost, shortage, o.cfg.DaysPerYear),
		MultiCriteria: &MultiCriteriaDetails{
			Weights:        weights.Normalize(),
			OptimalZ:       roundFloat(sol.Z, 6),
			ObjectiveValue: roundFloat(sol.Objective, 6),
			Iterations:     sol.Iterations,
		},
	}, nil
}

// jit sizes frequent small orders from the forecast.
func (o *Orchestrator) jit(req ItemRequest, in itemInputs) (OptimizationResult, error) {
	freq := req.OrderFrequencyDays
	if freq <= 0 {
		freq = o.cfg.JITOrderFreq
	}
	buffer := req.BufferPercentage
	if buffer <= 0 {
		buffer = o.cfg.JITBuffer
	}

	plan, err := CalculateJIT(JITInput{
		Forecast:           req.DemandForecast,
		LeadTimeDays:       in.leadTime,
		OrderFrequencyDays: freq,
		BufferPercentage:   buffer,
		DaysPerYear:        o.cfg.DaysPerYear,
	})
	if err != nil {
		if errors.Is(err, ErrEmptyForecast) {
			return OptimizationResult{}, itemErr(ReasonEmptyForecast, err)
		}
		return OptimizationResult{}, itemErr(ReasonException, err)
	}

	achieved := ClampServiceLevel(1 - plan.StockoutProbability)
	sigmaLT := in.stats.Std * math.Sqrt(in.leadTime)
	shortage := ExpectedShortage(sigmaLT, ZScore(achieved))

	return OptimizationResult{
		Status:                   StatusSuccess,
		EconomicOrderQuantity:    roundFloat(plan.OrderQuantity, 2),
		ReorderPoint:             roundFloat(plan.ReorderPoint, 2),
		SafetyStock:              roundFloat(plan.SafetyBuffer, 2),
		TargetInventoryLevel:     roundFloat(plan.SafetyBuffer+plan.OrderQuantity, 2),
		ExpectedShortagePerCycle: shortage,
		AchievedServiceLevel:     roundFloat(achieved, 6),
		Costs: computeCosts(in.stats.Annualized, plan.OrderQuantity, plan.SafetyBuffer, in.holdingPerUnit,
			req.Profile.OrderingCost, req.Profile.ShortageCost, shortage, o.cfg.DaysPerYear),
		JIT: &JITDetails{
			OrderFrequencyDays:  freq,
			BufferPercentage:    buffer,
			AverageWindowDemand: roundFloat(plan.AverageWindowDemand, 4),
			BaseOrderQuantity:   roundFloat(plan.BaseOrderQuantity, 2),
			StockoutProbability: roundFloat(plan.StockoutProbability, 4),
			MinimumSafetyBuffer: roundFloat(plan.SafetyBuffer, 2),
			OrdersPerYear:       roundFloat(plan.OrdersPerYear, 2),
			RollingWindowDays:   plan.WindowDays,
			RollingWindowsUsed:  plan.WindowsUsed,
			ForecastHorizonDays: len(req.DemandForecast),
		},
	}, nil
}

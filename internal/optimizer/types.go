package optimizer

import (
	"errors"
	"fmt"
	"time"
)

// Strategy selects which calculator pipeline runs for an item.
type Strategy string

const (
	StrategyStandard      Strategy = "standard"
	StrategyJIT           Strategy = "jit"
	StrategyMultiCriteria Strategy = "multi-criteria"
)

// ParseStrategy accepts the canonical names plus a few spellings seen in input files.
// An empty string selects the standard strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "standard", "eoq", "classical":
		return StrategyStandard, nil
	case "jit", "just-in-time", "just_in_time":
		return StrategyJIT, nil
	case "multi-criteria", "multi_criteria", "multicriteria", "mc":
		return StrategyMultiCriteria, nil
	default:
		return "", fmt.Errorf("unknown optimization strategy %q", s)
	}
}

// Status tells a caller how a result was produced.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFallback Status = "fallback"
	StatusError    Status = "error"
)

// FailureReason is the terminal reason recorded on failed (or fallback) results.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonEmptyForecast        FailureReason = "empty_forecast"
	ReasonInvalidAnnualDemand  FailureReason = "invalid_annual_demand"
	ReasonOptimizerNonConverge FailureReason = "optimizer_non_convergence"
	ReasonException            FailureReason = "exception"
)

var (
	ErrEmptyForecast       = errors.New("demand forecast is empty")
	ErrInvalidAnnualDemand = errors.New("annual demand is not positive")
	ErrNonConvergence      = errors.New("multi-criteria optimizer did not converge")
	ErrInvalidProfile      = errors.New("invalid item cost profile")
)

// ItemError carries the failure reason of a single item's optimization.
type ItemError struct {
	Reason FailureReason
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func itemErr(reason FailureReason, err error) error {
	return &ItemError{Reason: reason, Err: err}
}

// Observation is one dated demand value. OnHand is optional and only used for
// historical insights (stockout detection).
type Observation struct {
	Date   time.Time `json:"date"`
	Demand float64   `json:"demand"`
	OnHand *float64  `json:"on_hand,omitempty"`
}

// ItemCostProfile holds the economic parameters of one item.
type ItemCostProfile struct {
	UnitCost     float64 `json:"unit_cost"`
	LeadTimeDays float64 `json:"lead_time_days"`
	// HoldingCostRate is the annual holding cost as a fraction of unit cost.
	// Zero means the configured default rate.
	HoldingCostRate float64 `json:"holding_cost_rate,omitempty"`
	// HoldingCostPerUnitPerYear overrides UnitCost*HoldingCostRate when set.
	HoldingCostPerUnitPerYear *float64 `json:"holding_cost_per_unit_per_year,omitempty"`
	OrderingCost              float64  `json:"ordering_cost_per_order"`
	ShortageCost              float64  `json:"shortage_cost,omitempty"`
}

// Weights of the multi-criteria objective.
type Weights struct {
	Holding      float64 `json:"holding"`
	Ordering     float64 `json:"ordering"`
	ServiceLevel float64 `json:"service_level"`
}

// ItemRequest is the per-item input to the Orchestrator.
type ItemRequest struct {
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name,omitempty"`
	DemandForecast []float64       `json:"demand_forecast"`
	Profile        ItemCostProfile `json:"profile"`
	// ServiceLevel is the target (standard) or minimum acceptable (multi-criteria)
	// probability of not stocking out. Zero means the configured default.
	ServiceLevel      float64  `json:"service_level,omitempty"`
	CurrentStockLevel float64  `json:"current_stock_level"`
	Strategy          Strategy `json:"strategy,omitempty"`
	Weights           *Weights `json:"weights,omitempty"`
	// ABCCategory wins over the category computed by a batch ABC pass.
	ABCCategory Category `json:"abc_category,omitempty"`
	// History enables the historical-pattern recommendations.
	History []Observation `json:"history,omitempty"`
	// JIT overrides; zero means configured defaults.
	OrderFrequencyDays float64 `json:"order_frequency_days,omitempty"`
	BufferPercentage   float64 `json:"buffer_percentage,omitempty"`
}

// CostBreakdown is the annualized cost of the chosen policy, rounded to cents.
type CostBreakdown struct {
	AnnualOrderingCost float64 `json:"annual_ordering_cost"`
	AnnualHoldingCost  float64 `json:"annual_holding_cost"`
	AnnualShortageCost float64 `json:"annual_shortage_cost"`
	TotalAnnualCost    float64 `json:"total_annual_cost"`
	OrdersPerYear      float64 `json:"orders_per_year"`
	CycleDays          float64 `json:"cycle_days"`
}

// MultiCriteriaDetails is attached to results of the multi-criteria strategy.
type MultiCriteriaDetails struct {
	Weights        Weights `json:"weights"`
	OptimalZ       float64 `json:"optimal_z"`
	ObjectiveValue float64 `json:"objective_value"`
	Iterations     int     `json:"iterations"`
}

// JITDetails is attached to results of the JIT strategy.
type JITDetails struct {
	OrderFrequencyDays  float64 `json:"order_frequency_days"`
	BufferPercentage    float64 `json:"buffer_percentage"`
	AverageWindowDemand float64 `json:"average_window_demand"`
	BaseOrderQuantity   float64 `json:"base_order_quantity"`
	StockoutProbability float64 `json:"stockout_probability"`
	MinimumSafetyBuffer float64 `json:"minimum_safety_buffer"`
	OrdersPerYear       float64 `json:"orders_per_year"`
	RollingWindowDays   int     `json:"rolling_window_days"`
	RollingWindowsUsed  int     `json:"rolling_windows_used"`
	ForecastHorizonDays int     `json:"forecast_horizon_days"`
}

// OptimizationResult is the output record for one item. It is always
// well-formed: failures carry zeroed numeric fields and a status/message.
type OptimizationResult struct {
	ItemID                   string                `json:"item_id"`
	Strategy                 Strategy              `json:"strategy"`
	Status                   Status                `json:"status"`
	Reason                   FailureReason         `json:"reason,omitempty"`
	Message                  string                `json:"message,omitempty"`
	IsFallback               bool                  `json:"is_fallback"`
	EconomicOrderQuantity    float64               `json:"economic_order_quantity"`
	ReorderPoint             float64               `json:"reorder_point"`
	SafetyStock              float64               `json:"safety_stock"`
	TargetInventoryLevel     float64               `json:"target_inventory_level"`
	ExpectedShortagePerCycle float64               `json:"expected_shortage_per_cycle"`
	AchievedServiceLevel     float64               `json:"achieved_service_level"`
	AnnualDemand             float64               `json:"annual_demand"`
	MeanDailyDemand          float64               `json:"mean_daily_demand"`
	StdDailyDemand           float64               `json:"std_daily_demand"`
	ABCCategory              Category              `json:"abc_category,omitempty"`
	Costs                    *CostBreakdown        `json:"costs,omitempty"`
	MultiCriteria            *MultiCriteriaDetails `json:"multi_criteria,omitempty"`
	JIT                      *JITDetails           `json:"jit,omitempty"`
	Recommendations          []string              `json:"recommendations"`
}

// OK reports whether the item was optimized, normally or via fallback.
func (r OptimizationResult) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusFallback
}

// BatchResult is returned by OptimizeBatch. Results keep input order.
type BatchResult struct {
	RunID          string               `json:"run_id"`
	Results        []OptimizationResult `json:"results"`
	Analyzed       int                  `json:"analyzed"`
	Failed         int                  `json:"failed"`
	Fallbacks      int                  `json:"fallbacks"`
	Classification Classification       `json:"abc_classification"`
	StartedAt      time.Time            `json:"started_at"`
	CompletedAt    time.Time            `json:"completed_at"`
}

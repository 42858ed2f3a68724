package domain

import "time"

// Item is one row of the item master: a stocked hospital supply and its
// replenishment parameters.
type Item struct {
	ItemID             string   `json:"item_id" db:"item_id"`
	Name               string   `json:"name" db:"name"`
	Category           string   `json:"category,omitempty" db:"category"`
	UnitCost           float64  `json:"unit_cost" db:"unit_cost"`
	LeadTimeDays       float64  `json:"lead_time_days" db:"lead_time_days"`
	OrderingCost       float64  `json:"ordering_cost" db:"ordering_cost"`
	HoldingCostRate    float64  `json:"holding_cost_rate" db:"holding_cost_rate"`
	HoldingCostPerUnit *float64 `json:"holding_cost_per_unit_per_year,omitempty" db:"holding_cost_per_unit"`
	ShortageCost       float64  `json:"shortage_cost" db:"shortage_cost"`
	ServiceLevel       float64  `json:"service_level" db:"service_level"`
	CurrentStock       float64  `json:"current_stock" db:"current_stock"`
	OnOrder            float64  `json:"on_order" db:"on_order"`
	ABCCategory        string   `json:"abc_category,omitempty" db:"abc_category"`
	Strategy           string   `json:"strategy,omitempty" db:"strategy"`
}

// DemandRecord is one dated consumption observation of an item.
type DemandRecord struct {
	ItemID   string    `json:"item_id" db:"item_id"`
	Date     time.Time `json:"date" db:"demand_date"`
	Quantity float64   `json:"quantity" db:"quantity"`
	OnHand   *float64  `json:"on_hand,omitempty" db:"on_hand"`
}

// OptimizationRun is the stored header of a batch run.
type OptimizationRun struct {
	ID          string    `json:"id" db:"id"`
	Strategy    string    `json:"strategy" db:"strategy"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
	Analyzed    int       `json:"analyzed" db:"analyzed"`
	Failed      int       `json:"failed" db:"failed"`
	Fallbacks   int       `json:"fallbacks" db:"fallbacks"`
}

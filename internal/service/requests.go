package service

import (
	"fmt"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
)

// BuildRequests turns item-master rows and their grouped demand history into
// engine requests. A non-empty strategy overrides the per-item one. Forecasts
// are left empty; the service derives them from History.
func BuildRequests(items []domain.Item, demand map[string][]domain.DemandRecord, strategy optimizer.Strategy) ([]optimizer.ItemRequest, error) {
	reqs := make([]optimizer.ItemRequest, 0, len(items))
	for _, it := range items {
		s := strategy
		if s == "" {
			parsed, err := optimizer.ParseStrategy(it.Strategy)
			if err != nil {
				return nil, fmt.Errorf("item %s: %w", it.ItemID, err)
			}
			s = parsed
		}
		category, err := optimizer.ParseCategory(it.ABCCategory)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ItemID, err)
		}

		records := demand[it.ItemID]
		history := make([]optimizer.Observation, len(records))
		for i, r := range records {
			history[i] = optimizer.Observation{Date: r.Date, Demand: r.Quantity, OnHand: r.OnHand}
		}

		reqs = append(reqs, optimizer.ItemRequest{
			ItemID: it.ItemID,
			Name:   it.Name,
			Profile: optimizer.ItemCostProfile{
				UnitCost:                  it.UnitCost,
				LeadTimeDays:              it.LeadTimeDays,
				HoldingCostRate:           it.HoldingCostRate,
				HoldingCostPerUnitPerYear: it.HoldingCostPerUnit,
				OrderingCost:              it.OrderingCost,
				ShortageCost:              it.ShortageCost,
			},
			ServiceLevel:      it.ServiceLevel,
			CurrentStockLevel: it.CurrentStock,
			Strategy:          s,
			ABCCategory:       category,
			History:           history,
		})
	}
	return reqs, nil
}

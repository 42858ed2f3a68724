package domain

import "math"

// Replenishment is the order suggestion for one item at its current stock.
type Replenishment struct {
	ItemID        string        `json:"item_id"`
	Position      StockPosition `json:"position"`
	DaysOfCover   float64       `json:"days_of_cover"`
	OrderDue      bool          `json:"order_due"`
	OrderQuantity int           `json:"order_quantity"`
}

// SuggestReplenishment raises an order when stock at hand is at or below the
// reorder point. The quantity tops inventory up to the target level net of
// stock already on order, rounded up to whole units.
func SuggestReplenishment(itemID string, current, onOrder, meanDaily, reorderPoint, target, approachingFactor float64) Replenishment {
	r := Replenishment{
		ItemID:   itemID,
		Position: ClassifyStockPosition(current, reorderPoint, target, approachingFactor),
	}
	if meanDaily > 0 {
		r.DaysOfCover = math.Round(current/meanDaily*10) / 10
	}
	if r.Position == PositionUnknown {
		return r
	}

	if current <= reorderPoint {
		r.OrderDue = true
		r.OrderQuantity = int(math.Max(0, math.Ceil(target-current-onOrder)))
	}
	return r
}

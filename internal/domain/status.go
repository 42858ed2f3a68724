package domain

import "strings"

// StockPosition describes on-hand stock relative to an item's policy.
type StockPosition string

const (
	PositionUnknown     StockPosition = "unknown"
	PositionUrgent      StockPosition = "urgent"
	PositionApproaching StockPosition = "approaching"
	PositionHealthy     StockPosition = "healthy"
	PositionOverstock   StockPosition = "overstock"
)

var stockPositionLabels = map[StockPosition]string{
	PositionUrgent:      "Below reorder point",
	PositionApproaching: "Approaching reorder point",
	PositionHealthy:     "Healthy",
	PositionOverstock:   "Above target level",
}

// ClassifyStockPosition compares current stock against the reorder point
// and the target inventory level. A zero reorder point and target means
// the item has no policy.
func ClassifyStockPosition(current, reorderPoint, target, approachingFactor float64) StockPosition {
	if reorderPoint <= 0 && target <= 0 {
		return PositionUnknown
	}
	switch {
	case current < reorderPoint:
		return PositionUrgent
	case current < reorderPoint*approachingFactor:
		return PositionApproaching
	case target > 0 && current > target:
		return PositionOverstock
	default:
		return PositionHealthy
	}
}

// StockPositionLabel returns a human-readable label for a position.
func StockPositionLabel(p StockPosition) string {
	if label, ok := stockPositionLabels[p]; ok {
		return label
	}

	return "No policy"
}

// ParseStockPosition returns the position for a label or code (case-insensitive).
func ParseStockPosition(s string) (StockPosition, bool) {
	key := StockPosition(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := stockPositionLabels[key]; ok {
		return key, true
	}
	for p, label := range stockPositionLabels {
		if strings.EqualFold(label, s) {
			return p, true
		}
	}

	return PositionUnknown, false
}

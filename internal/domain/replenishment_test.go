package domain

import "testing"

func TestSuggestReplenishment(t *testing.T) {
	testCases := []struct {
		name      string
		current   float64
		onOrder   float64
		rop       float64
		target    float64
		wantDue   bool
		wantQty   int
		wantCover float64
		wantPos   StockPosition
	}{
		{"below reorder point", 20, 0, 70, 300, true, 280, 2, PositionUrgent},
		{"open order counts", 20, 100, 70, 300, true, 180, 2, PositionUrgent},
		{"on order covers target", 20, 400, 70, 300, true, 0, 2, PositionUrgent},
		{"exactly at reorder point", 70, 0, 70, 300, true, 230, 7, PositionApproaching},
		{"healthy", 150, 0, 70, 300, false, 0, 15, PositionHealthy},
		{"fractional target rounds up", 10, 0, 20, 50.2, true, 41, 1, PositionUrgent},
		{"no policy", 10, 0, 0, 0, false, 0, 1, PositionUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestReplenishment("x", tc.current, tc.onOrder, 10, tc.rop, tc.target, 1.2)
			if got.OrderDue != tc.wantDue || got.OrderQuantity != tc.wantQty {
				t.Errorf("Expected due=%v qty=%d, got due=%v qty=%d", tc.wantDue, tc.wantQty, got.OrderDue, got.OrderQuantity)
			}
			if got.DaysOfCover != tc.wantCover || got.Position != tc.wantPos {
				t.Errorf("Expected cover %v position %s, got %v %s", tc.wantCover, tc.wantPos, got.DaysOfCover, got.Position)
			}
		})
	}

	if got := SuggestReplenishment("x", 5, 0, 0, 10, 20, 1.2); got.DaysOfCover != 0 {
		t.Errorf("Expected zero cover without demand, got %v", got.DaysOfCover)
	}
}

package domain

import "testing"

func TestClassifyStockPosition(t *testing.T) {
	testCases := []struct {
		name    string
		current float64
		rop     float64
		target  float64
		want    StockPosition
	}{
		{"no policy", 10, 0, 0, PositionUnknown},
		{"below reorder point", 10, 50, 200, PositionUrgent},
		{"approaching", 55, 50, 200, PositionApproaching},
		{"healthy", 120, 50, 200, PositionHealthy},
		{"overstock", 250, 50, 200, PositionOverstock},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyStockPosition(tc.current, tc.rop, tc.target, 1.2); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseStockPosition(t *testing.T) {
	if p, ok := ParseStockPosition("URGENT"); !ok || p != PositionUrgent {
		t.Errorf("Expected urgent, got %s %v", p, ok)
	}
	if p, ok := ParseStockPosition("above target level"); !ok || p != PositionOverstock {
		t.Errorf("Expected overstock from label, got %s %v", p, ok)
	}
	if _, ok := ParseStockPosition("lost"); ok {
		t.Errorf("Expected unknown label to fail")
	}
	if StockPositionLabel(PositionUnknown) != "No policy" {
		t.Errorf("unexpected label for unknown position")
	}
}

package optimizer

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Category is an ABC bucket.
type Category string

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
	CategoryC Category = "C"
	CategoryD Category = "D"
)

// ParseCategory accepts A-D in either case; empty input returns "".
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "A":
		return CategoryA, nil
	case "B":
		return CategoryB, nil
	case "C":
		return CategoryC, nil
	case "D":
		return CategoryD, nil
	default:
		return "", fmt.Errorf("unknown ABC category %q", s)
	}
}

// ABCThresholds are cumulative-value cut-offs in (0, 1].
type ABCThresholds struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
}

// DefaultABCThresholds is the 80/95/100 split.
func DefaultABCThresholds() ABCThresholds {
	return ABCThresholds{A: 0.80, B: 0.95, C: 1.0}
}

// normalized returns thresholds that are ordered and within (0, 1].
// Invalid input falls back to the defaults.
func (t ABCThresholds) normalized() ABCThresholds {
	if !(t.A > 0 && t.A <= t.B && t.B <= t.C && t.C <= 1) {
		return DefaultABCThresholds()
	}
	return t
}

// ItemValue is one entry of the ABC input.
type ItemValue struct {
	ItemID string  `json:"item_id"`
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value"`
}

// ClassifiedItem is an ItemValue tagged with its bucket.
type ClassifiedItem struct {
	ItemValue
	Category             Category `json:"abc_category"`
	Rank                 int      `json:"rank"`
	CumulativePercentage float64  `json:"cumulative_percentage"`
}

// Classification maps each bucket to its items in descending value order.
type Classification map[Category][]ClassifiedItem

// CategoryOf returns the bucket of an item, or "" if it is not classified.
func (c Classification) CategoryOf(itemID string) Category {
	for cat, items := range c {
		for _, it := range items {
			if it.ItemID == itemID {
				return cat
			}
		}
	}
	return ""
}

// Index flattens the classification into itemID -> category.
func (c Classification) Index() map[string]Category {
	idx := make(map[string]Category)
	for cat, items := range c {
		for _, it := range items {
			idx[it.ItemID] = cat
		}
	}
	return idx
}

// Count returns the number of classified items.
func (c Classification) Count() int {
	n := 0
	for _, items := range c {
		n += len(items)
	}
	return n
}

func emptyClassification() Classification {
	return Classification{
		CategoryA: {},
		CategoryB: {},
		CategoryC: {},
		CategoryD: {},
	}
}

// abcEpsilon absorbs floating-point drift in the running cumulative share.
const abcEpsilon = 1e-9

// ClassifyABC ranks items by value (descending, ties keep input order) and
// buckets them by cumulative share of the total value. Items with a
// non-positive value go to D. If the total value is not positive every
// bucket is empty. Input items are copied, never modified.
func ClassifyABC(items []ItemValue, thresholds ABCThresholds) Classification {
	out := emptyClassification()
	th := thresholds.normalized()

	total := 0.0
	for _, it := range items {
		if it.Value > 0 && !math.IsInf(it.Value, 0) {
			total += it.Value
		}
	}
	if total <= 0 {
		return out
	}

	sorted := make([]ItemValue, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return valueOrZero(sorted[i].Value) > valueOrZero(sorted[j].Value)
	})

	cumulative := 0.0
	for rank, it := range sorted {
		v := valueOrZero(it.Value)
		if v <= 0 {
			out[CategoryD] = append(out[CategoryD], ClassifiedItem{
				ItemValue:            it,
				Category:             CategoryD,
				Rank:                 rank + 1,
				CumulativePercentage: math.Min(1, cumulative/total),
			})
			continue
		}

		cumulative += v
		share := cumulative / total

		var cat Category
		switch {
		case share <= th.A+abcEpsilon:
			cat = CategoryA
		case share <= th.B+abcEpsilon:
			cat = CategoryB
		case share <= th.C+abcEpsilon:
			cat = CategoryC
		default:
			cat = CategoryD
		}

		out[cat] = append(out[cat], ClassifiedItem{
			ItemValue:            it,
			Category:             cat,
			Rank:                 rank + 1,
			CumulativePercentage: math.Min(1, share),
		})
	}

	return out
}

func valueOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// AnnualConsumptionValue is annual demand times unit cost.
func AnnualConsumptionValue(annualDemand, unitCost float64) float64 {
	if annualDemand <= 0 || unitCost <= 0 {
		return 0
	}
	return annualDemand * unitCost
}

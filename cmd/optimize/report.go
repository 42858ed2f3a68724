package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
)

// printBatch writes one line per item with its policy, stock position and
// order suggestion. items and batch.Results share the same order.
func printBatch(w io.Writer, batch optimizer.BatchResult, items []domain.Item, approachingFactor float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ITEM\tSTRATEGY\tSTATUS\tABC\tEOQ\tROP\tSS\tSTOCK\tCOVER\tPOSITION\tORDER\n")
	due := 0
	for i, r := range batch.Results {
		it := items[i]
		s := domain.SuggestReplenishment(it.ItemID, it.CurrentStock, it.OnOrder, r.MeanDailyDemand,
			r.ReorderPoint, r.TargetInventoryLevel, approachingFactor)
		status := string(r.Status)
		if r.Reason != optimizer.ReasonNone {
			status += " (" + string(r.Reason) + ")"
		}
		order := "-"
		if s.OrderDue {
			due++
			order = fmt.Sprintf("%d", s.OrderQuantity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.1fd\t%s\t%s\n",
			r.ItemID, r.Strategy, status, r.ABCCategory,
			r.EconomicOrderQuantity, r.ReorderPoint, r.SafetyStock, it.CurrentStock, s.DaysOfCover,
			domain.StockPositionLabel(s.Position), order)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nrun %s: %d analyzed, %d fallbacks, %d failed, %d orders due\n",
		batch.RunID, batch.Analyzed, batch.Fallbacks, batch.Failed, due)
	return err
}

func printClassification(w io.Writer, c optimizer.Classification) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tITEM\tCATEGORY\tVALUE\tCUMULATIVE\n")
	for _, cat := range []optimizer.Category{optimizer.CategoryA, optimizer.CategoryB, optimizer.CategoryC, optimizer.CategoryD} {
		for _, it := range c[cat] {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f%%\n", it.Rank, it.ItemID, cat, it.Value, it.CumulativePercentage*100)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nA=%d B=%d C=%d D=%d\n",
		len(c[optimizer.CategoryA]), len(c[optimizer.CategoryB]), len(c[optimizer.CategoryC]), len(c[optimizer.CategoryD]))
	return err
}

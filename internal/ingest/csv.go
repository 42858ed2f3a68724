package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
)

var (
	ErrMissingColumn = errors.New("required column missing")
	ErrInvalidNumber = errors.New("invalid number")
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// record wraps one CSV row with tolerant accessors. The first numeric
// parse failure is kept in err and reported once the row is built.
type record struct {
	fields []string
	err    error
}

func (r *record) get(idx int) string {
	if idx < 0 || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r *record) float(idx int) float64 {
	raw := r.get(idx)
	if raw == "" {
		return 0
	}
	v := strings.ReplaceAll(raw, ",", "")
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = errors.New("not finite")
	}
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("%w in column %d: %q", ErrInvalidNumber, idx+1, raw)
		}
		return 0
	}
	return f
}

func (r *record) optionalFloat(idx int) *float64 {
	v := r.get(idx)
	if v == "" {
		return nil
	}
	f := r.float(idx)
	return &f
}

type header []string

func (h header) index(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, col := range h {
		if _, ok := targets[normalizeColumnName(col)]; ok {
			return i
		}
	}
	return -1
}

func newReader(r io.Reader) (*csv.Reader, header, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	h, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(h) > 0 {
		h[0] = strings.TrimPrefix(h[0], "\ufeff")
	}
	return reader, header(h), nil
}

// ReadItems parses an item master CSV. Only the item id column is
// required; unknown columns are ignored and blank numbers read as 0.
func ReadItems(r io.Reader) ([]domain.Item, error) {
	reader, h, err := newReader(r)
	if err != nil {
		return nil, err
	}

	idxID := h.index("item_id", "item id", "sku", "code", "id")
	if idxID < 0 {
		return nil, fmt.Errorf("%w: item_id", ErrMissingColumn)
	}
	idxName := h.index("name", "item_name", "description", "product name")
	idxCategory := h.index("category", "group")
	idxUnitCost := h.index("unit_cost", "unit cost", "price", "cost")
	idxLeadTime := h.index("lead_time_days", "lead_time", "lead time")
	idxOrdering := h.index("ordering_cost", "ordering_cost_per_order", "order cost")
	idxRate := h.index("holding_cost_rate", "holding rate")
	idxHolding := h.index("holding_cost_per_unit_per_year", "holding_cost_per_unit", "holding cost")
	idxShortage := h.index("shortage_cost", "stockout_cost")
	idxService := h.index("service_level", "service level")
	idxStock := h.index("current_stock", "current_stock_level", "stock", "on_hand")
	idxOnOrder := h.index("on_order", "open_po", "in_transit")
	idxABC := h.index("abc_category", "abc")
	idxStrategy := h.index("strategy")

	items := make([]domain.Item, 0)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := record{fields: fields}
		id := rec.get(idxID)
		if id == "" {
			continue
		}

		item := domain.Item{
			ItemID:             id,
			Name:               rec.get(idxName),
			Category:           rec.get(idxCategory),
			UnitCost:           rec.float(idxUnitCost),
			LeadTimeDays:       rec.float(idxLeadTime),
			OrderingCost:       rec.float(idxOrdering),
			HoldingCostRate:    rec.float(idxRate),
			HoldingCostPerUnit: rec.optionalFloat(idxHolding),
			ShortageCost:       rec.float(idxShortage),
			ServiceLevel:       rec.float(idxService),
			CurrentStock:       rec.float(idxStock),
			OnOrder:            rec.float(idxOnOrder),
			ABCCategory:        rec.get(idxABC),
			Strategy:           rec.get(idxStrategy),
		}
		if rec.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, rec.err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadDemand parses a demand history CSV with item id, date and quantity
// columns and an optional on-hand column.
func ReadDemand(r io.Reader) ([]domain.DemandRecord, error) {
	reader, h, err := newReader(r)
	if err != nil {
		return nil, err
	}

	idxID := h.index("item_id", "item id", "sku", "code", "id")
	idxDate := h.index("date", "demand_date", "day")
	idxQty := h.index("quantity", "demand", "qty", "consumption", "used")
	idxOnHand := h.index("on_hand", "stock", "stock_level")
	for name, idx := range map[string]int{"item_id": idxID, "date": idxDate, "quantity": idxQty} {
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	records := make([]domain.DemandRecord, 0)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := record{fields: fields}
		id := rec.get(idxID)
		if id == "" {
			continue
		}
		date, err := parseDate(rec.get(idxDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rr := domain.DemandRecord{
			ItemID:   id,
			Date:     date,
			Quantity: rec.float(idxQty),
			OnHand:   rec.optionalFloat(idxOnHand),
		}
		if rec.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, rec.err)
		}
		records = append(records, rr)
	}
	return records, nil
}

// ReadItemsFile opens and parses an item master file.
func ReadItemsFile(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, err := ReadItems(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ReadDemandFile opens and parses a demand history file.
func ReadDemandFile(path string) ([]domain.DemandRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadDemand(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// GroupDemand groups records by item and sorts each series by date.
// Records of the same item and day are summed.
func GroupDemand(records []domain.DemandRecord) map[string][]domain.DemandRecord {
	byItem := make(map[string][]domain.DemandRecord)
	for _, r := range records {
		byItem[r.ItemID] = append(byItem[r.ItemID], r)
	}

	for id, series := range byItem {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		merged := series[:0]
		for _, r := range series {
			if n := len(merged); n > 0 && merged[n-1].Date.Equal(r.Date) {
				merged[n-1].Quantity += r.Quantity
				if r.OnHand != nil {
					merged[n-1].OnHand = r.OnHand
				}
				continue
			}
			merged = append(merged, r)
		}
		byItem[id] = merged
	}
	return byItem
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
)

const resultColumns = `
	run_id, position, item_id, strategy, status, reason, message,
	order_quantity, reorder_point, safety_stock, target_inventory_level,
	expected_shortage, service_level, annual_demand, mean_daily_demand,
	std_daily_demand, abc_category, is_fallback, recommendations, details, created_at`

type resultRow struct {
	RunID                string         `db:"run_id"`
	Position             int            `db:"position"`
	ItemID               string         `db:"item_id"`
	Strategy             string         `db:"strategy"`
	Status               string         `db:"status"`
	Reason               string         `db:"reason"`
	Message              string         `db:"message"`
	OrderQuantity        float64        `db:"order_quantity"`
	ReorderPoint         float64        `db:"reorder_point"`
	SafetyStock          float64        `db:"safety_stock"`
	TargetInventoryLevel float64        `db:"target_inventory_level"`
	ExpectedShortage     float64        `db:"expected_shortage"`
	ServiceLevel         float64        `db:"service_level"`
	AnnualDemand         float64        `db:"annual_demand"`
	MeanDailyDemand      float64        `db:"mean_daily_demand"`
	StdDailyDemand       float64        `db:"std_daily_demand"`
	ABCCategory          string         `db:"abc_category"`
	IsFallback           bool           `db:"is_fallback"`
	Recommendations      pq.StringArray `db:"recommendations"`
	Details              []byte         `db:"details"`
	CreatedAt            time.Time      `db:"created_at"`
}

// resultDetails holds the optional nested parts of a result in the JSONB column.
type resultDetails struct {
	Costs         *optimizer.CostBreakdown        `json:"costs,omitempty"`
	MultiCriteria *optimizer.MultiCriteriaDetails `json:"multi_criteria,omitempty"`
	JIT           *optimizer.JITDetails           `json:"jit,omitempty"`
}

func toResultRow(runID string, position int, r optimizer.OptimizationResult) (resultRow, error) {
	row := resultRow{
		RunID:                runID,
		Position:             position,
		ItemID:               r.ItemID,
		Strategy:             string(r.Strategy),
		Status:               string(r.Status),
		Reason:               string(r.Reason),
		Message:              r.Message,
		OrderQuantity:        r.EconomicOrderQuantity,
		ReorderPoint:         r.ReorderPoint,
		SafetyStock:          r.SafetyStock,
		TargetInventoryLevel: r.TargetInventoryLevel,
		ExpectedShortage:     r.ExpectedShortagePerCycle,
		ServiceLevel:         r.AchievedServiceLevel,
		AnnualDemand:         r.AnnualDemand,
		MeanDailyDemand:      r.MeanDailyDemand,
		StdDailyDemand:       r.StdDailyDemand,
		ABCCategory:          string(r.ABCCategory),
		IsFallback:           r.IsFallback,
		Recommendations:      pq.StringArray(r.Recommendations),
	}
	if row.Recommendations == nil {
		row.Recommendations = pq.StringArray{}
	}

	if r.Costs != nil || r.MultiCriteria != nil || r.JIT != nil {
		details, err := json.Marshal(resultDetails{Costs: r.Costs, MultiCriteria: r.MultiCriteria, JIT: r.JIT})
		if err != nil {
			return resultRow{}, fmt.Errorf("encode result details: %w", err)
		}
		row.Details = details
	}
	return row, nil
}

func (row resultRow) toResult() (optimizer.OptimizationResult, error) {
	r := optimizer.OptimizationResult{
		ItemID:                   row.ItemID,
		Strategy:                 optimizer.Strategy(row.Strategy),
		Status:                   optimizer.Status(row.Status),
		Reason:                   optimizer.FailureReason(row.Reason),
		Message:                  row.Message,
		IsFallback:               row.IsFallback,
		EconomicOrderQuantity:    row.OrderQuantity,
		ReorderPoint:             row.ReorderPoint,
		SafetyStock:              row.SafetyStock,
		TargetInventoryLevel:     row.TargetInventoryLevel,
		ExpectedShortagePerCycle: row.ExpectedShortage,
		AchievedServiceLevel:     row.ServiceLevel,
		AnnualDemand:             row.AnnualDemand,
		MeanDailyDemand:          row.MeanDailyDemand,
		StdDailyDemand:           row.StdDailyDemand,
		ABCCategory:              optimizer.Category(row.ABCCategory),
		Recommendations:          []string(row.Recommendations),
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}

	if len(row.Details) > 0 {
		var d resultDetails
		if err := json.Unmarshal(row.Details, &d); err != nil {
			return optimizer.OptimizationResult{}, fmt.Errorf("decode result details: %w", err)
		}
		r.Costs, r.MultiCriteria, r.JIT = d.Costs, d.MultiCriteria, d.JIT
	}
	return r, nil
}

func rowsToResults(rows []resultRow) ([]optimizer.OptimizationResult, error) {
	results := make([]optimizer.OptimizationResult, 0, len(rows))
	for _, row := range rows {
		r, err := row.toResult()
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", row.ItemID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

type resultRepository struct {
	db *DB
}

func NewResultRepository(db *DB) repository.ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create optimization schema: %w", err)
	}
	return nil
}

func (r *resultRepository) SaveRun(ctx context.Context, strategy string, batch optimizer.BatchResult) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Run header
		_, err := tx.ExecContext(ctx, `
			INSERT INTO optimization_runs (id, strategy, started_at, completed_at, analyzed, failed, fallbacks)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, batch.RunID, strategy, batch.StartedAt, batch.CompletedAt, batch.Analyzed, batch.Failed, batch.Fallbacks)
		if err != nil {
			return fmt.Errorf("failed to insert optimization run: %w", err)
		}

		// 2. Per-item results, in input order
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO optimization_results (`+resultColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for i, result := range batch.Results {
			row, err := toResultRow(batch.RunID, i, result)
			if err != nil {
				return err
			}
			var details interface{}
			if row.Details != nil {
				details = string(row.Details)
			}
			_, err = stmt.ExecContext(ctx,
				row.RunID, row.Position, row.ItemID, row.Strategy, row.Status, row.Reason, row.Message,
				row.OrderQuantity, row.ReorderPoint, row.SafetyStock, row.TargetInventoryLevel,
				row.ExpectedShortage, row.ServiceLevel, row.AnnualDemand, row.MeanDailyDemand,
				row.StdDailyDemand, row.ABCCategory, row.IsFallback, pq.Array([]string(row.Recommendations)), details, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert result for %s: %w", result.ItemID, err)
			}
		}

		log.Debug().
			Str("run_id", batch.RunID).
			Int("results", len(batch.Results)).
			Msg("optimization run stored")
		return nil
	})
}

func (r *resultRepository) GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, error) {
	var run domain.OptimizationRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, strategy, started_at, completed_at, analyzed, failed, fallbacks
		FROM optimization_runs
		WHERE id = $1
	`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting optimization run: %w", err)
	}
	return &run, nil
}

func (r *resultRepository) GetRunResults(ctx context.Context, runID string) ([]optimizer.OptimizationResult, error) {
	var rows []resultRow
	query := `SELECT ` + resultColumns + ` FROM optimization_results WHERE run_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("error getting run results: %w", err)
	}
	if len(rows) == 0 {
		if _, err := r.GetRun(ctx, runID); err != nil {
			return nil, err
		}
	}
	return rowsToResults(rows)
}

func (r *resultRepository) GetLatestResult(ctx context.Context, itemID string) (*optimizer.OptimizationResult, error) {
	var row resultRow
	query := `SELECT ` + resultColumns + `
		FROM optimization_results
		WHERE item_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &row, query, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting latest result: %w", err)
	}

	result, err := row.toResult()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) ListResults(ctx context.Context, filter repository.ResultFilter) ([]optimizer.OptimizationResult, int, error) {
	where, args := buildResultFilterClause(filter, "r", 1)

	var total int
	countQuery := `SELECT COUNT(*) FROM optimization_results r WHERE 1=1` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting results: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM optimization_results r WHERE 1=1%s
		ORDER BY r.created_at DESC, r.position
		LIMIT $%d OFFSET $%d`, resultColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error listing results: %w", err)
	}

	results, err := rowsToResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

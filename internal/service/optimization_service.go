package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/cache"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/forecast"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
)

const defaultForecastHorizon = 90

// ErrPersistenceDisabled is returned by read operations when no repository is configured.
var ErrPersistenceDisabled = errors.New("result persistence is not configured")

type OptimizationService struct {
	engine     *optimizer.Orchestrator
	forecaster forecast.Forecaster
	horizon    int
	cache      cache.ResultCache
	repo       repository.ResultRepository
}

// NewOptimizationService wires the engine to its collaborators. cacheImpl and
// repo may be nil; a nil repo disables persistence.
func NewOptimizationService(
	engine *optimizer.Orchestrator,
	forecaster forecast.Forecaster,
	horizon int,
	cacheImpl cache.ResultCache,
	repo repository.ResultRepository,
) *OptimizationService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	if forecaster == nil {
		forecaster = forecast.MovingAverage{Window: 30}
	}
	if horizon <= 0 {
		horizon = defaultForecastHorizon
	}
	return &OptimizationService{
		engine:     engine,
		forecaster: forecaster,
		horizon:    horizon,
		cache:      cacheImpl,
		repo:       repo,
	}
}

// PersistenceEnabled reports whether runs are stored.
func (s *OptimizationService) PersistenceEnabled() bool {
	return s.repo != nil
}

// withForecast fills an empty forecast from the request history. A failed
// forecast leaves the request untouched so the engine reports it.
func (s *OptimizationService) withForecast(req optimizer.ItemRequest) optimizer.ItemRequest {
	if len(req.DemandForecast) > 0 || len(req.History) == 0 {
		return req
	}

	history := make([]float64, len(req.History))
	for i, o := range req.History {
		history[i] = o.Demand
	}
	fc, err := s.forecaster.Forecast(history, s.horizon)
	if err != nil {
		log.Warn().Err(err).Str("item_id", req.ItemID).Str("forecaster", s.forecaster.Name()).Msg("optimization: forecast failed")
		return req
	}
	req.DemandForecast = fc
	return req
}

// OptimizeItem optimizes one item, serving repeated requests from the cache.
func (s *OptimizationService) OptimizeItem(ctx context.Context, req optimizer.ItemRequest) optimizer.OptimizationResult {
	req = s.withForecast(req)
	key := cache.ResultKey(req)

	if result, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return result
	} else if err != nil {
		log.Warn().Err(err).Str("item_id", req.ItemID).Msg("optimization: cache get failed")
	}

	result := s.engine.Optimize(req)
	if !result.OK() {
		return result
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Warn().Err(err).Str("item_id", req.ItemID).Msg("optimization: cache set failed")
	}
	return result
}

// OptimizeBatch runs the batch and stores it when persistence is enabled.
// The batch is returned even when storing it fails.
func (s *OptimizationService) OptimizeBatch(ctx context.Context, strategy optimizer.Strategy, reqs []optimizer.ItemRequest) (optimizer.BatchResult, error) {
	prepared := make([]optimizer.ItemRequest, len(reqs))
	for i, r := range reqs {
		if strategy != "" && r.Strategy == "" {
			r.Strategy = strategy
		}
		prepared[i] = s.withForecast(r)
	}

	batch := s.engine.OptimizeBatch(ctx, prepared)
	if s.repo == nil {
		return batch, nil
	}

	if strategy == "" {
		strategy = optimizer.StrategyStandard
	}
	if err := s.repo.SaveRun(ctx, string(strategy), batch); err != nil {
		return batch, fmt.Errorf("save optimization run %s: %w", batch.RunID, err)
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Str("run_id", batch.RunID).Msg("optimization: cache invalidate failed")
	}
	return batch, nil
}

func (s *OptimizationService) Classify(items []optimizer.ItemValue) optimizer.Classification {
	return s.engine.Classify(items)
}

// ClassifyItems ranks items by the annual consumption value of their demand history.
func (s *OptimizationService) ClassifyItems(items []domain.Item, demand map[string][]domain.DemandRecord) optimizer.Classification {
	days := s.engine.Config().DaysPerYear
	values := make([]optimizer.ItemValue, 0, len(items))
	for _, it := range items {
		stats := optimizer.ComputeDemandStats(quantities(demand[it.ItemID]), days)
		values = append(values, optimizer.ItemValue{
			ItemID: it.ItemID,
			Name:   it.Name,
			Value:  optimizer.AnnualConsumptionValue(stats.Annualized, it.UnitCost),
		})
	}
	return s.engine.Classify(values)
}

// GetRun returns a stored run header and its results in input order.
func (s *OptimizationService) GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, []optimizer.OptimizationResult, error) {
	if s.repo == nil {
		return nil, nil, ErrPersistenceDisabled
	}
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.repo.GetRunResults(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = make([]optimizer.OptimizationResult, 0)
	}
	return run, results, nil
}

func (s *OptimizationService) GetLatestResult(ctx context.Context, itemID string) (*optimizer.OptimizationResult, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.GetLatestResult(ctx, itemID)
}

func (s *OptimizationService) ListResults(ctx context.Context, filter repository.ResultFilter) ([]optimizer.OptimizationResult, int, error) {
	if s.repo == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListResults(ctx, filter)
}

func quantities(records []domain.DemandRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Quantity
	}
	return out
}

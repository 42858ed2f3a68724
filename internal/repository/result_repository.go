package repository

import (
	"context"
	"errors"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
)

var ErrNotFound = errors.New("not found")

// ResultFilter narrows a result listing. Zero fields do not filter.
type ResultFilter struct {
	RunID       string
	ItemIDs     []string
	Status      string
	Strategy    string
	ABCCategory string
	Limit       int
	Offset      int
}

// ResultRepository persists optimization runs and their per-item results.
type ResultRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveRun(ctx context.Context, strategy string, batch optimizer.BatchResult) error
	GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, error)
	GetRunResults(ctx context.Context, runID string) ([]optimizer.OptimizationResult, error)
	GetLatestResult(ctx context.Context, itemID string) (*optimizer.OptimizationResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]optimizer.OptimizationResult, int, error)
}

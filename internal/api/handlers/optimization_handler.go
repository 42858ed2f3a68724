package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/service"
)

const maxBatchSize = 10000

type OptimizationHandler struct {
	service *service.OptimizationService
}

func NewOptimizationHandler(s *service.OptimizationService) *OptimizationHandler {
	return &OptimizationHandler{service: s}
}

type batchRequest struct {
	Strategy string                  `json:"strategy"`
	Items    []optimizer.ItemRequest `json:"items"`
}

type runResponse struct {
	Run     any                            `json:"run"`
	Results []optimizer.OptimizationResult `json:"results"`
}

// OptimizeItem handles POST /optimization/items. Item-level failures are
// reported in the result body with a 200.
func (h *OptimizationHandler) OptimizeItem(c *gin.Context) {
	var req optimizer.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}
	strategy, err := optimizer.ParseStrategy(string(req.Strategy))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Strategy = strategy

	c.JSON(http.StatusOK, h.service.OptimizeItem(c.Request.Context(), req))
}

// OptimizeBatch handles POST /optimization/batch.
func (h *OptimizationHandler) OptimizeBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
		return
	}
	if len(body.Items) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many items in one batch"})
		return
	}

	var strategy optimizer.Strategy
	if body.Strategy != "" {
		s, err := optimizer.ParseStrategy(body.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		strategy = s
	}
	// Per-item strategies override the batch one; an empty value inherits it.
	for i := range body.Items {
		if body.Items[i].Strategy == "" {
			continue
		}
		s, err := optimizer.ParseStrategy(string(body.Items[i].Strategy))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "item_id": body.Items[i].ItemID})
			return
		}
		body.Items[i].Strategy = s
	}

	batch, err := h.service.OptimizeBatch(c.Request.Context(), strategy, body.Items)
	if err != nil {
		log.Error().Err(err).Str("run_id", batch.RunID).Msg("failed to persist optimization run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist optimization run", "run_id": batch.RunID})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Classify handles POST /optimization/abc.
func (h *OptimizationHandler) Classify(c *gin.Context) {
	var items []optimizer.ItemValue
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Classify(items))
}

// GetRun handles GET /optimization/runs/:id.
func (h *OptimizationHandler) GetRun(c *gin.Context) {
	run, results, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.readError(c, err, "failed to fetch optimization run")
		return
	}
	c.JSON(http.StatusOK, runResponse{Run: run, Results: results})
}

// GetLatestResult handles GET /optimization/items/:id/latest.
func (h *OptimizationHandler) GetLatestResult(c *gin.Context) {
	result, err := h.service.GetLatestResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.readError(c, err, "failed to fetch latest result")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResults handles GET /optimization/results.
func (h *OptimizationHandler) ListResults(c *gin.Context) {
	filter := parseResultFilter(c)
	results, total, err := h.service.ListResults(c.Request.Context(), filter)
	if err != nil {
		h.readError(c, err, "failed to list results")
		return
	}
	if results == nil {
		results = make([]optimizer.OptimizationResult, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (h *OptimizationHandler) readError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func parseResultFilter(c *gin.Context) repository.ResultFilter {
	filter := repository.ResultFilter{
		RunID:       strings.TrimSpace(c.Query("run_id")),
		Status:      strings.TrimSpace(c.Query("status")),
		Strategy:    strings.TrimSpace(c.Query("strategy")),
		ABCCategory: strings.ToUpper(strings.TrimSpace(c.Query("abc_category"))),
		Limit:       50,
	}
	for _, raw := range c.QueryArray("item_id") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.ItemIDs = append(filter.ItemIDs, id)
			}
		}
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		if v > 500 {
			v = 500
		}
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		filter.Offset = v
	}
	return filter
}

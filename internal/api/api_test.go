package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/forecast"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/service"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewOptimizationService(optimizer.New(optimizer.DefaultConfig()), forecast.MovingAverage{Window: 30}, 90, nil, nil)
	return NewRouter(&Services{OptimizationService: svc}, []string{"*"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func forecast30(v float64) []float64 {
	out := make([]float64, 30)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestRouter(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestOptimizeItemEndpoint(t *testing.T) {
	router := newTestRouter()
	body := map[string]any{
		"item_id":         "iv-set",
		"demand_forecast": forecast30(10),
		"profile": map[string]any{
			"unit_cost":               4,
			"lead_time_days":          5,
			"ordering_cost_per_order": 40,
		},
		"current_stock_level": 20,
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/optimization/items", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result optimizer.OptimizationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != optimizer.StatusSuccess || result.Strategy != optimizer.StrategyStandard {
		t.Errorf("unexpected result %+v", result)
	}
	if result.ReorderPoint != 50 {
		t.Errorf("Expected reorder point 50, got %v", result.ReorderPoint)
	}
}

func TestOptimizeItemValidation(t *testing.T) {
	router := newTestRouter()
	testCases := []struct {
		name string
		body any
	}{
		{"missing item id", map[string]any{"demand_forecast": []float64{1}}},
		{"unknown strategy", map[string]any{"item_id": "x", "strategy": "magic"}},
		{"not json", "nope"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/optimization/items", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestItemFailureIsReportedInBody(t *testing.T) {
	w := doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/items", map[string]any{"item_id": "x"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var result optimizer.OptimizationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != optimizer.StatusError || result.Reason != optimizer.ReasonEmptyForecast {
		t.Errorf("Expected empty_forecast error, got %s/%s", result.Status, result.Reason)
	}
}

func TestOptimizeBatchEndpoint(t *testing.T) {
	body := map[string]any{
		"strategy": "jit",
		"items": []map[string]any{
			{"item_id": "a", "demand_forecast": forecast30(10), "profile": map[string]any{"unit_cost": 2, "lead_time_days": 3, "ordering_cost_per_order": 10}},
			{"item_id": "b", "demand_forecast": forecast30(0), "profile": map[string]any{"unit_cost": 2, "lead_time_days": 3, "ordering_cost_per_order": 10}},
		},
	}
	w := doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var batch optimizer.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if batch.RunID == "" || len(batch.Results) != 2 || batch.Analyzed != 1 || batch.Failed != 1 {
		t.Errorf("unexpected batch %+v", batch)
	}
	if batch.Results[0].Strategy != optimizer.StrategyJIT {
		t.Errorf("Expected the batch strategy to apply, got %s", batch.Results[0].Strategy)
	}

	w = doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/batch", map[string]any{"items": []any{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty batch, got %d", w.Code)
	}
}

func TestOptimizeBatchItemStrategies(t *testing.T) {
	profile := map[string]any{"unit_cost": 2, "lead_time_days": 3, "ordering_cost_per_order": 10}
	body := map[string]any{
		"strategy": "jit",
		"items": []map[string]any{
			{"item_id": "a", "strategy": "mc", "demand_forecast": forecast30(10), "profile": profile},
			{"item_id": "b", "demand_forecast": forecast30(10), "profile": profile},
		},
	}
	w := doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var batch optimizer.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(batch.Results))
	}
	if batch.Results[0].Strategy != optimizer.StrategyMultiCriteria || batch.Results[0].Status == optimizer.StatusError {
		t.Errorf("Expected a multi-criteria result for the alias, got %s/%s", batch.Results[0].Strategy, batch.Results[0].Status)
	}
	if batch.Results[1].Strategy != optimizer.StrategyJIT {
		t.Errorf("Expected the batch strategy for an item without one, got %s", batch.Results[1].Strategy)
	}

	body["items"] = []map[string]any{
		{"item_id": "a", "demand_forecast": forecast30(10), "profile": profile},
		{"item_id": "z", "strategy": "magic", "demand_forecast": forecast30(10), "profile": profile},
	}
	w = doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/batch", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unknown item strategy, got %d", w.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errBody["item_id"] != "z" {
		t.Errorf("Expected the failing item to be named, got %v", errBody)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	body := []map[string]any{
		{"item_id": "a", "value": 50},
		{"item_id": "b", "value": 30},
		{"item_id": "c", "value": 10},
		{"item_id": "d", "value": 5},
		{"item_id": "e", "value": 5},
	}
	w := doJSON(t, newTestRouter(), http.MethodPost, "/api/v1/optimization/abc", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got optimizer.Classification
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got[optimizer.CategoryA]) != 2 || len(got[optimizer.CategoryB]) != 2 || len(got[optimizer.CategoryC]) != 1 {
		t.Errorf("unexpected classification %+v", got)
	}
	if _, ok := got[optimizer.CategoryD]; !ok {
		t.Errorf("Expected all four buckets in the response")
	}
}

func TestReadEndpointsWithoutPersistence(t *testing.T) {
	router := newTestRouter()
	for _, path := range []string{
		"/api/v1/optimization/runs/abc",
		"/api/v1/optimization/items/x/latest",
		"/api/v1/optimization/results?status=error",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: Expected 503, got %d", path, w.Code)
		}
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || len(origins) != 2 || origins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v (all=%v)", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Errorf("Expected wildcard to allow all origins")
	}
}

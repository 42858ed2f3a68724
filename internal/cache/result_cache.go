package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/config"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
)

const (
	resultKeyPrefix     = "optimization:result"
	resultScanBatchSize = 100
	resultClientName    = "inventory-optimizer"
	defaultResultTTL    = 5 * time.Minute
	dialTimeout         = 5 * time.Second
)

// ResultCache stores single-item optimization results keyed by their request.
type ResultCache interface {
	Get(ctx context.Context, key string) (optimizer.OptimizationResult, bool, error)
	Set(ctx context.Context, key string, result optimizer.OptimizationResult) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	return dialResultCache(cfg)
}

func dialResultCache(cfg config.CacheConfig) (*redisResultCache, error) {
	opts, err := resultCacheOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("result cache unreachable at %s: %w", opts.Addr, err)
	}

	ttl := cfg.ResultTTL()
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &redisResultCache{client: client, ttl: ttl}, nil
}

// resultCacheOptions resolves the connection for the result cache. A URL
// wins over the discrete host settings; either way the client is tagged so
// its connections show up under one name in CLIENT LIST.
func resultCacheOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid result cache url: %w", err)
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}
	if opts.ClientName == "" {
		opts.ClientName = resultClientName
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = dialTimeout
	}
	return opts, nil
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) Get(ctx context.Context, key string) (optimizer.OptimizationResult, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return optimizer.OptimizationResult{}, false, nil
	}
	if err != nil {
		return optimizer.OptimizationResult{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result optimizer.OptimizationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return optimizer.OptimizationResult{}, false, fmt.Errorf("decode optimization result cache: %w", err)
	}
	return result, true, nil
}

func (c *redisResultCache) Set(ctx context.Context, key string, result optimizer.OptimizationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode optimization result cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached result. Only keys under the result
// namespace are touched, so a shared Redis database is safe to use.
func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	removed, err := c.purge(ctx)
	if err != nil {
		return err
	}
	log.Debug().Int64("removed", removed).Msg("optimization result cache invalidated")
	return nil
}

func (c *redisResultCache) purge(ctx context.Context) (int64, error) {
	var removed int64
	iter := c.client.Scan(ctx, 0, resultKeyPattern(), resultScanBatchSize).Iterator()
	batch := make([]string, 0, resultScanBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("unlink cached results: %w", err)
		}
		removed += n
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == resultScanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan cached results: %w", err)
	}
	return removed, flush()
}

func resultKeyPattern() string {
	return resultKeyPrefix + ":*"
}

func (n *noopResultCache) Get(ctx context.Context, key string) (optimizer.OptimizationResult, bool, error) {
	return optimizer.OptimizationResult{}, false, nil
}

func (n *noopResultCache) Set(ctx context.Context, key string, result optimizer.OptimizationResult) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// ResultKey builds the cache key of a request. Requests that differ in any
// input the engine reads map to different keys.
func ResultKey(req optimizer.ItemRequest) string {
	return fmt.Sprintf("%s:%s", resultKeyPrefix, requestHash(req))
}

func requestHash(req optimizer.ItemRequest) string {
	p := req.Profile
	parts := []string{
		"item=" + strings.TrimSpace(req.ItemID),
		"strategy=" + strings.ToLower(string(req.Strategy)),
		"service_level=" + formatFloat(req.ServiceLevel),
		"stock=" + formatFloat(req.CurrentStockLevel),
		"unit_cost=" + formatFloat(p.UnitCost),
		"lead_time=" + formatFloat(p.LeadTimeDays),
		"holding_rate=" + formatFloat(p.HoldingCostRate),
		"ordering_cost=" + formatFloat(p.OrderingCost),
		"shortage_cost=" + formatFloat(p.ShortageCost),
	}
	if p.HoldingCostPerUnitPerYear != nil {
		parts = append(parts, "holding_override="+formatFloat(*p.HoldingCostPerUnitPerYear))
	}
	if req.Weights != nil {
		parts = append(parts, fmt.Sprintf("weights=%s,%s,%s",
			formatFloat(req.Weights.Holding), formatFloat(req.Weights.Ordering), formatFloat(req.Weights.ServiceLevel)))
	}
	if req.ABCCategory != "" {
		parts = append(parts, "abc="+string(req.ABCCategory))
	}
	if req.OrderFrequencyDays > 0 {
		parts = append(parts, "order_frequency="+formatFloat(req.OrderFrequencyDays))
	}
	if req.BufferPercentage > 0 {
		parts = append(parts, "buffer="+formatFloat(req.BufferPercentage))
	}

	series := make([]string, len(req.DemandForecast))
	for i, v := range req.DemandForecast {
		series[i] = formatFloat(v)
	}
	parts = append(parts, "forecast="+strings.Join(series, ","))

	if len(req.History) > 0 {
		history := make([]string, len(req.History))
		for i, o := range req.History {
			onHand := "-"
			if o.OnHand != nil {
				onHand = formatFloat(*o.OnHand)
			}
			history[i] = o.Date.Format("2006-01-02") + "/" + formatFloat(o.Demand) + "/" + onHand
		}
		parts = append(parts, "history="+strings.Join(history, ","))
	}

	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

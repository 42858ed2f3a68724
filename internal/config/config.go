package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Log       LogConfig
	Optimizer OptimizerConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled       bool
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConcurrent int64
}

// DSN returns the libpq-style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ResultTTLSeconds int
}

// ResultTTL is the lifetime of a cached optimization result.
func (c CacheConfig) ResultTTL() time.Duration {
	return time.Duration(c.ResultTTLSeconds) * time.Second
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type OptimizerConfig struct {
	DefaultServiceLevel    float64
	DefaultHoldingCostRate float64
	MaxServiceLevel        float64
	ThresholdA             float64
	ThresholdB             float64
	ThresholdC             float64
	WeightHolding          float64
	WeightOrdering         float64
	WeightServiceLevel     float64
	MaxIterations          int
	Tolerance              float64
	JITOrderFrequencyDays  float64
	JITBufferPercentage    float64
	Workers                int
	DaysPerYear            float64
	LongLeadTimeDays       float64
	ApproachingFactor      float64
	MaxRecommendations     int
	Forecaster             string
	ForecastHorizon        int
}

// Load reads .env (when present) and the environment on top of the
// defaults below. Every call returns a fresh Config.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:       v.GetBool("DB_ENABLED"),
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			DBName:        v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MaxConcurrent: v.GetInt64("DB_MAX_CONCURRENT_TX"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ResultTTLSeconds: v.GetInt("CACHE_RESULT_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Optimizer: OptimizerConfig{
			DefaultServiceLevel:    v.GetFloat64("OPT_DEFAULT_SERVICE_LEVEL"),
			DefaultHoldingCostRate: v.GetFloat64("OPT_DEFAULT_HOLDING_COST_RATE"),
			MaxServiceLevel:        v.GetFloat64("OPT_MAX_SERVICE_LEVEL"),
			ThresholdA:             v.GetFloat64("OPT_ABC_THRESHOLD_A"),
			ThresholdB:             v.GetFloat64("OPT_ABC_THRESHOLD_B"),
			ThresholdC:             v.GetFloat64("OPT_ABC_THRESHOLD_C"),
			WeightHolding:          v.GetFloat64("OPT_WEIGHT_HOLDING"),
			WeightOrdering:         v.GetFloat64("OPT_WEIGHT_ORDERING"),
			WeightServiceLevel:     v.GetFloat64("OPT_WEIGHT_SERVICE_LEVEL"),
			MaxIterations:          v.GetInt("OPT_MAX_ITERATIONS"),
			Tolerance:              v.GetFloat64("OPT_TOLERANCE"),
			JITOrderFrequencyDays:  v.GetFloat64("OPT_JIT_ORDER_FREQUENCY_DAYS"),
			JITBufferPercentage:    v.GetFloat64("OPT_JIT_BUFFER_PERCENTAGE"),
			Workers:                v.GetInt("OPT_WORKERS"),
			DaysPerYear:            v.GetFloat64("OPT_DAYS_PER_YEAR"),
			LongLeadTimeDays:       v.GetFloat64("OPT_LONG_LEAD_TIME_DAYS"),
			ApproachingFactor:      v.GetFloat64("OPT_APPROACHING_REORDER_FACTOR"),
			MaxRecommendations:     v.GetInt("OPT_MAX_RECOMMENDATIONS"),
			Forecaster:             v.GetString("OPT_FORECASTER"),
			ForecastHorizon:        v.GetInt("OPT_FORECAST_HORIZON"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hospital_inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONCURRENT_TX", 8)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_RESULT_TTL_SECONDS", 300)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "inventory")
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("STORAGE_USE_SSL", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	d := optimizer.DefaultConfig()
	v.SetDefault("OPT_DEFAULT_SERVICE_LEVEL", d.DefaultServiceLevel)
	v.SetDefault("OPT_DEFAULT_HOLDING_COST_RATE", d.DefaultHoldingCostRate)
	v.SetDefault("OPT_MAX_SERVICE_LEVEL", d.MaxServiceLevel)
	v.SetDefault("OPT_ABC_THRESHOLD_A", d.ABCThresholds.A)
	v.SetDefault("OPT_ABC_THRESHOLD_B", d.ABCThresholds.B)
	v.SetDefault("OPT_ABC_THRESHOLD_C", d.ABCThresholds.C)
	v.SetDefault("OPT_WEIGHT_HOLDING", d.Weights.Holding)
	v.SetDefault("OPT_WEIGHT_ORDERING", d.Weights.Ordering)
	v.SetDefault("OPT_WEIGHT_SERVICE_LEVEL", d.Weights.ServiceLevel)
	v.SetDefault("OPT_MAX_ITERATIONS", d.MaxIterations)
	v.SetDefault("OPT_TOLERANCE", d.Tolerance)
	v.SetDefault("OPT_JIT_ORDER_FREQUENCY_DAYS", d.JITOrderFreq)
	v.SetDefault("OPT_JIT_BUFFER_PERCENTAGE", d.JITBuffer)
	v.SetDefault("OPT_WORKERS", d.Workers)
	v.SetDefault("OPT_DAYS_PER_YEAR", d.DaysPerYear)
	v.SetDefault("OPT_LONG_LEAD_TIME_DAYS", d.Rules.LongLeadTimeDays)
	v.SetDefault("OPT_APPROACHING_REORDER_FACTOR", d.Rules.ApproachingReorderFactor)
	v.SetDefault("OPT_MAX_RECOMMENDATIONS", d.Rules.MaxRecommendations)
	v.SetDefault("OPT_FORECASTER", "moving_average")
	v.SetDefault("OPT_FORECAST_HORIZON", 90)
}

// OptimizerConfig converts the loaded section into the engine's Config.
func (c *Config) OptimizerConfig() optimizer.Config {
	o := c.Optimizer
	rules := optimizer.DefaultRecommendationRules()
	rules.LongLeadTimeDays = o.LongLeadTimeDays
	rules.ApproachingReorderFactor = o.ApproachingFactor
	rules.MaxRecommendations = o.MaxRecommendations

	return optimizer.Config{
		DefaultServiceLevel:    o.DefaultServiceLevel,
		DefaultHoldingCostRate: o.DefaultHoldingCostRate,
		MaxServiceLevel:        o.MaxServiceLevel,
		ABCThresholds: optimizer.ABCThresholds{
			A: o.ThresholdA,
			B: o.ThresholdB,
			C: o.ThresholdC,
		},
		Weights: optimizer.Weights{
			Holding:      o.WeightHolding,
			Ordering:     o.WeightOrdering,
			ServiceLevel: o.WeightServiceLevel,
		},
		MaxIterations: o.MaxIterations,
		Tolerance:     o.Tolerance,
		JITOrderFreq:  o.JITOrderFrequencyDays,
		JITBuffer:     o.JITBufferPercentage,
		Workers:       o.Workers,
		DaysPerYear:   o.DaysPerYear,
		Rules:         rules,
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/config"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/domain"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/forecast"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/ingest"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/optimizer"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository/postgres"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/service"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/storage"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/pkg/logger"
)

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "items",
			Usage:   "Item master CSV file",
			Value:   "items.csv",
			EnvVars: []string{"OPTIMIZE_ITEMS_FILE"},
		},
		&cli.StringFlag{
			Name:    "demand",
			Usage:   "Daily demand history CSV file",
			Value:   "demand.csv",
			EnvVars: []string{"OPTIMIZE_DEMAND_FILE"},
		},
		&cli.StringFlag{
			Name:  "bucket-prefix",
			Usage: "Fetch items.csv and demand.csv from this object storage prefix instead of local files",
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Local directory for downloaded inputs",
			Value: "./data/tmp/inputs",
		},
	}
}

func main() {
	app := &cli.App{
		Name:  "optimize",
		Usage: "Compute inventory policies for hospital supplies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg := config.Load()
			level := cfg.Log.Level
			if c.String("log-level") != "" {
				level = c.String("log-level")
			}
			logger.Init(logger.Options{
				Level:      level,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Optimize every item of the item master",
				Flags: append(inputFlags(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Strategy for all items: standard, jit or multi-criteria (default: per item)",
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Forecast horizon in days (default from OPT_FORECAST_HORIZON)",
					},
					&cli.StringFlag{
						Name:  "forecaster",
						Usage: "moving_average, exponential_smoothing or linear_trend (default from OPT_FORECASTER)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent item workers (default from OPT_WORKERS)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the batch result as JSON to this file",
					},
					&cli.BoolFlag{
						Name:  "persist",
						Usage: "Store the run in Postgres",
					},
					&cli.StringFlag{
						Name:    "db-url",
						Usage:   "Database connection string (default: DB_* settings)",
						EnvVars: []string{"DATABASE_URL"},
					},
				),
				Action: runOptimize,
			},
			{
				Name:   "abc",
				Usage:  "Classify items by annual consumption value",
				Flags:  inputFlags(),
				Action: runABC,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("optimize failed")
	}
}

func runOptimize(c *cli.Context) error {
	ctx := c.Context
	cfg := config.Load()

	var strategy optimizer.Strategy
	if name := c.String("strategy"); name != "" {
		parsed, err := optimizer.ParseStrategy(name)
		if err != nil {
			return err
		}
		strategy = parsed
	}

	items, demand, inputs, err := loadInputs(c, cfg)
	if err != nil {
		return err
	}

	ocfg := cfg.OptimizerConfig()
	if w := c.Int("workers"); w > 0 {
		ocfg.Workers = w
	}
	horizon := cfg.Optimizer.ForecastHorizon
	if h := c.Int("horizon"); h > 0 {
		horizon = h
	}
	forecasterName := cfg.Optimizer.Forecaster
	if name := c.String("forecaster"); name != "" {
		forecasterName = name
	}
	forecaster, err := forecast.New(forecasterName)
	if err != nil {
		return err
	}

	var repo repository.ResultRepository
	if c.Bool("persist") {
		db, err := openDB(c, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = postgres.NewResultRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	svc := service.NewOptimizationService(optimizer.New(ocfg), forecaster, horizon, nil, repo)
	reqs, err := service.BuildRequests(items, demand, strategy)
	if err != nil {
		return err
	}

	log.Info().
		Int("items", len(reqs)).
		Str("forecaster", forecaster.Name()).
		Int("horizon", horizon).
		Msg("starting optimization run")

	batch, err := svc.OptimizeBatch(ctx, strategy, reqs)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch result: %w", err)
	}
	if out := c.String("out"); out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("prepare output directory: %w", err)
		}
		if err := os.WriteFile(out, payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		log.Info().Str("path", out).Msg("batch result written")
	}

	if inputs != nil {
		key := storage.JoinKey(c.String("bucket-prefix"), "runs", batch.RunID+".json")
		if err := inputs.client.UploadObject(ctx, key, payload); err != nil {
			return err
		}
		log.Info().Str("key", key).Msg("batch result uploaded")
	}

	return printBatch(os.Stdout, batch, items, ocfg.Rules.ApproachingReorderFactor)
}

func runABC(c *cli.Context) error {
	cfg := config.Load()
	items, demand, _, err := loadInputs(c, cfg)
	if err != nil {
		return err
	}

	svc := service.NewOptimizationService(optimizer.New(cfg.OptimizerConfig()), nil, 0, nil, nil)
	return printClassification(os.Stdout, svc.ClassifyItems(items, demand))
}

// loadInputs reads the item master and demand files, downloading them first
// when a bucket prefix is given. The downloader is returned for uploads.
func loadInputs(c *cli.Context, cfg *config.Config) ([]domain.Item, map[string][]domain.DemandRecord, *inputDownloader, error) {
	itemsPath, demandPath := c.String("items"), c.String("demand")

	var dl *inputDownloader
	if prefix := c.String("bucket-prefix"); prefix != "" {
		var err error
		dl, err = newInputDownloader(cfg.Storage, c.String("download-dir"))
		if err != nil {
			return nil, nil, nil, err
		}
		itemsPath, demandPath, err = dl.fetchInputs(c.Context, prefix)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	items, err := ingest.ReadItemsFile(itemsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	records, err := ingest.ReadDemandFile(demandPath)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Info().
		Int("items", len(items)).
		Int("demand_records", len(records)).
		Msg("inputs loaded")
	return items, ingest.GroupDemand(records), dl, nil
}

func openDB(c *cli.Context, cfg *config.Config) (*postgres.DB, error) {
	if url := c.String("db-url"); url != "" {
		return postgres.Open("pgx", url, cfg.Database.MaxConcurrent)
	}
	return postgres.NewDB(&cfg.Database)
}


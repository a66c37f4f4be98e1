package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sentiment-lens/internal/classifier"
	"sentiment-lens/internal/classifier/classifierobs"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/cyclelog"
	"sentiment-lens/internal/digest"
	"sentiment-lens/internal/digest/digestobs"
	"sentiment-lens/internal/filter"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/news"
	"sentiment-lens/internal/news/newsobs"
	"sentiment-lens/internal/notify"
	"sentiment-lens/internal/notify/notifyobs"
	"sentiment-lens/internal/pipeline"
	"sentiment-lens/internal/pipeline/pipelineobs"
	"sentiment-lens/internal/scheduler"
	"sentiment-lens/internal/store"
	"sentiment-lens/internal/trace"
	"sentiment-lens/internal/types"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush traces: %v\n", err)
	}
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	return cfg, nil
}

func loadSecrets() config.Secrets {
	return config.LoadSecrets()
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open database", err, "driver", cfg.Database.Driver)
		return nil, err
	}
	return st, nil
}

// initializeSource builds the news source with observability
func initializeSource(ctx context.Context, cfg *config.Config, secrets config.Secrets) (interfaces.NewsSource, error) {
	src, err := news.New(cfg, secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize news source: %w", err)
	}
	logger.Info(ctx, "News source ready",
		"provider", cfg.Source.Provider,
		"enrich_content", cfg.Source.EnrichContent,
	)
	return newsobs.Wrap(src), nil
}

// initializeClassifier loads the classifier backend. Failure here is fatal.
func initializeClassifier(ctx context.Context, cfg *config.Config, secrets config.Secrets) (interfaces.Classifier, error) {
	apiKey := secrets.OpenAIAPIKey
	if cfg.Classifier.Backend == "claude" {
		apiKey = secrets.ClaudeAPIKey
	}
	c, err := classifier.New(classifier.Options{
		Backend:    cfg.Classifier.Backend,
		ModelPath:  cfg.Classifier.ModelPath,
		Endpoint:   cfg.Classifier.Endpoint,
		LabelOrder: cfg.Classifier.LabelOrder,
		Model:      cfg.Classifier.Model,
		APIKey:     apiKey,
		Timeout:    cfg.Classifier.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}
	logger.Info(ctx, "Classifier loaded", "backend", c.Name(), "labels", c.Labels().String())
	return classifierobs.Wrap(c), nil
}

// initializePipeline wires source, classifier and notifier into one cycle
func initializePipeline(ctx context.Context, cfg *config.Config, st *store.Store) (interfaces.Cycle, error) {
	secrets := loadSecrets()

	src, err := initializeSource(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	c, err := initializeClassifier(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	notifier := notifyobs.Wrap(notify.New(ctx, secrets))

	p := pipeline.New(st, src, c, notifier,
		filter.NewNoiseFilter(cfg.Filter.NoiseKeywords),
		pipeline.Config{
			PageSize: cfg.Source.PageSize,
			Alerts: pipeline.AlertConfig{
				Threshold: cfg.Alerts.Threshold,
				Window:    cfg.Alerts.Window,
				Policy:    cfg.Alerts.Policy,
				Cooldown:  cfg.Alerts.Cooldown,
			},
		},
	)
	return pipelineobs.Wrap(p), nil
}

// initializeCycleLog compresses old cycle logs if retention is configured
func initializeCycleLog(ctx context.Context, cfg *config.Config) *cyclelog.Log {
	logs := cyclelog.New(cfg.Logs.Dir)
	if err := logs.CompressOlder(cfg.Logs.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
	return logs
}

// initializeDigest returns nil when the daily digest is disabled
func initializeDigest(cfg *config.Config, st *store.Store) interfaces.DigestWriter {
	if !cfg.Digest.Enabled {
		return nil
	}
	return digestobs.Wrap(digest.New(st, cfg.Logs.Dir, cfg.Digest.AfterHour, time.UTC))
}

func digestSink(dg interfaces.DigestWriter) scheduler.Sink {
	return func(ctx context.Context, _ *types.CycleReport) error {
		_, err := digest.WriteIfDue(ctx, dg, time.Now())
		return err
	}
}

func writeDigest(ctx context.Context, dg interfaces.DigestWriter) {
	p, err := digest.WriteIfDue(ctx, dg, time.Now())
	if err != nil {
		logger.Warn(ctx, "Failed to write sentiment digest on shutdown", "error", err)
		return
	}
	if p != "" {
		logger.Info(ctx, "Sentiment digest written", "csv_path", p)
	}
}

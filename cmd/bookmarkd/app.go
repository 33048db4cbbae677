package main

import (
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/background"
	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/config"
	"github.com/codenerd-labs/bookmarkd/internal/embedding"
	"github.com/codenerd-labs/bookmarkd/internal/engine"
	"github.com/codenerd-labs/bookmarkd/internal/explain"
	"github.com/codenerd-labs/bookmarkd/internal/feedback"
	"github.com/codenerd-labs/bookmarkd/internal/ingestion"
	"github.com/codenerd-labs/bookmarkd/internal/intent"
	"github.com/codenerd-labs/bookmarkd/internal/llm"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/orchestrator"
	"github.com/codenerd-labs/bookmarkd/internal/progress"
	"github.com/codenerd-labs/bookmarkd/internal/ratelimit"
	"github.com/codenerd-labs/bookmarkd/internal/scraper"
	"github.com/codenerd-labs/bookmarkd/internal/skillgap"
	"github.com/codenerd-labs/bookmarkd/internal/store"
)

// App bundles every wired component a CLI command might need.
type App struct {
	Config       *config.Config
	Store        *store.Store
	Cache        cache.Cache
	Embedder     embedding.Engine
	LLM          llm.Client
	Scraper      *scraper.Scraper
	Keys         *ratelimit.Registry
	Progress     *progress.Stream
	Ingestion    *ingestion.Pipeline
	Analyzer     *background.Analyzer
	Orchestrator *orchestrator.Orchestrator
	Feedback     *feedback.Learner
	configWatch  *config.Watcher
}

// Close releases everything that owns an OS resource.
func (a *App) Close() {
	if a.configWatch != nil {
		a.configWatch.Stop()
	}
	if a.Analyzer != nil {
		a.Analyzer.Stop()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// buildApp loads configuration and wires every component together the
// same way for every command, so a CLI invocation and a long-running
// worker process see identical behavior.
func buildApp(configPath, ws string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if ws != "" {
		cfg.Workspace = ws
	}

	if err := logging.Configure(cfg.Workspace, cfg.Logging.DebugMode, cfg.Logging.Categories, cfg.Logging.Level); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.DatabaseURL, cfg.Store.MaxOrderedItems)
	if err != nil {
		return nil, err
	}

	ch := cache.New(cfg.Cache.RedisURL, cfg.Cache.Disabled)

	embedder := embedding.NewLazyEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})

	llmClient := llm.New(llm.Config{
		DefaultAPIKey:  cfg.LLM.DefaultAPIKey,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		MaxRetries:     cfg.LLM.MaxRetries,
	})

	sc := scraper.New(scraper.Config{
		StealthHosts:       cfg.Scraper.StealthHosts,
		RequestsPerHour:    cfg.Scraper.RequestsPerHour,
		MinDelay:           time.Duration(cfg.Scraper.MinDelaySeconds) * time.Second,
		MaxDelay:           time.Duration(cfg.Scraper.MaxDelaySeconds) * time.Second,
		QualityFloor:       cfg.Scraper.QualityFloor,
		MaxExtractedChars:  cfg.Scraper.MaxExtractedChars,
		HeadlessBrowserBin: cfg.Scraper.HeadlessBrowserBin,
	})

	keys, err := ratelimit.NewRegistry(cfg.RateLimit.KeysFile, cfg.RateLimit.EncryptionKey, ratelimit.Limits{
		PerMinute: cfg.RateLimit.PerMinute,
		PerDay:    cfg.RateLimit.PerDay,
		PerMonth:  cfg.RateLimit.PerMonth,
	})
	if err != nil {
		return nil, err
	}

	prog := progress.New(ch)

	ingest := ingestion.New(st, sc, embedder, ch, prog, ingestion.Config{
		QualityFloor: cfg.Ingestion.QualityFloor,
		Concurrency:  cfg.Ingestion.BulkConcurrency,
	})

	analyzer := background.New(st, llmClient, keys.GetKey, keys.Reserve, background.Config{
		Interval:  cfg.Background.Interval,
		Cooldown:  cfg.Background.CooldownAfter,
		BatchSize: cfg.Background.BatchSize,
	})

	fastEngine := engine.NewFastSemanticEngine(embedder)
	ctxEngine := engine.NewContextAwareEngine(fastEngine)
	intentAnalyzer := intent.New(st, ch, llmClient, keys.Reserve, intent.Config{})
	learner := feedback.New(st, ch)
	gapAnalyzer := skillgap.New(st)
	explainer := explain.New(llmClient, keys.Reserve)

	orch := orchestrator.New(orchestrator.Deps{
		Store:         st,
		Cache:         ch,
		FastEngine:    fastEngine,
		ContextEngine: ctxEngine,
		Intent:        intentAnalyzer,
		Feedback:      learner,
		SkillGap:      gapAnalyzer,
		Explainer:     explainer,
		Keys:          keys,
		DefaultAPIKey: cfg.LLM.DefaultAPIKey,
	})

	a := &App{
		Config:       cfg,
		Store:        st,
		Cache:        ch,
		Embedder:     embedder,
		LLM:          llmClient,
		Scraper:      sc,
		Keys:         keys,
		Progress:     prog,
		Ingestion:    ingest,
		Analyzer:     analyzer,
		Orchestrator: orch,
		Feedback:     learner,
	}

	if configPath != "" {
		if watcher, err := config.Watch(configPath, cfg, a.applyConfigChange); err != nil {
			logging.Get(logging.CategoryBoot).Warn("config hot-reload disabled: %v", err)
		} else {
			a.configWatch = watcher
		}
	}

	return a, nil
}

// applyConfigChange picks up the subset of settings that are safe to
// change without restarting: rate-limit quotas and the active log level.
// Store DSN, embedding provider, and scoring weights still require a
// restart since they'd otherwise leave already-persisted data (vectors,
// open connections) inconsistent with the new config.
func (a *App) applyConfigChange(cfg *config.Config) {
	a.Config = cfg
	a.Keys.SetLimits(ratelimit.Limits{
		PerMinute: cfg.RateLimit.PerMinute,
		PerDay:    cfg.RateLimit.PerDay,
		PerMonth:  cfg.RateLimit.PerMonth,
	})
	if err := logging.Configure(cfg.Workspace, cfg.Logging.DebugMode, cfg.Logging.Categories, cfg.Logging.Level); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config hot-reload: failed to apply new logging config: %v", err)
	}
}

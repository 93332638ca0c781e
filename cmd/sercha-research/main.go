// Command sercha-research builds grounded research reports from local documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-research/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-research/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-research/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-research/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-research/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-research/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/core/services"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/normalisers"
	"github.com/custodia-labs/sercha-research/internal/postprocessors"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env is normal; API keys usually come from the shell.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(func(opts cli.Options) (*cli.Services, func(), error) {
		return bootstrap(ctx, opts)
	})

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap wires adapters into the core services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	dir := opts.DataDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("settings: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, nil, fmt.Errorf("prompts: %w", err)
	}

	aiServices, err := ai.Init(ctx, *settings, prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("ai services: %w", err)
	}

	metrics := telemetry.Default()
	ingestor := services.NewIngestor(filesystem.New(), normalisers.Default())
	retriever := services.NewRetriever(aiServices.Ranker,
		services.WithDedupe(settings.Retrieval.Dedupe),
		services.WithFallbackLimit(settings.Retrieval.FallbackLimit),
		services.WithRetrieverMetrics(metrics),
	)
	synthesizer := services.NewSynthesizer(aiServices.Generator, aiServices.Validator)
	synthesizer.SetMetrics(metrics)

	pipeline := services.NewPipeline(
		ingestor,
		postprocessors.BuildChunker(settings.Chunker),
		retriever,
		synthesizer,
		services.NewGrounder(settings.Grounding.Mode),
	)
	pipeline.SetTracer(telemetry.Tracer())

	store, closeStore, err := openSessionStore(settings.Storage.Backend, filepath.Join(dir, "data"))
	if err != nil {
		aiServices.Close()
		return nil, nil, err
	}

	cleanup := func() {
		aiServices.Close()
		if err := closeStore(); err != nil {
			logger.Warn("close session store: %v", err)
		}
	}

	return &cli.Services{
		Sessions: services.NewSessionService(store),
		Research: services.NewResearchService(store, pipeline),
		Settings: settingsService,
	}, cleanup, nil
}

func openSessionStore(backend domain.StorageBackend, dataDir string) (driven.SessionStore, func() error, error) {
	if backend == domain.StorageBackendMemory {
		logger.Info("using in-memory session store; sessions are lost on exit")
		return memory.NewSessionStore(), func() error { return nil }, nil
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}
	return store, store.Close, nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/connectors/filesystem"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers"
	"github.com/custodia-labs/ragcore/internal/postprocessors"
)

func newFactory() *cli.Factory {
	return &cli.Factory{
		Settings: openSettings,
		Pipeline: openPipeline,
	}
}

func openSettings(configDir string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// openPipeline wires providers, storage, the vector index and the services
// for cfg, then restores the persisted index.
func openPipeline(ctx context.Context, cfg domain.Config) (p *cli.Pipeline, err error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	providers, err := ai.Init(ctx, cfg, false)
	if err != nil {
		return nil, err
	}
	closers = append(closers, providers.Close)

	store, err := sqlite.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			logger.Debug("Closing storage: %v", err)
		}
	})
	logger.Debug("Storage: %s", store.Path())

	reg := prom.NewRegistry()
	metrics, err := prometheus.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	embedder, err := services.NewEmbedder(providers.EmbeddingService, cfg.Embedding, metrics)
	if err != nil {
		return nil, err
	}

	index, err := vectorindex.New(cfg.Index, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	chunker, err := postprocessors.FromSettings(postprocessors.DefaultRegistry(), cfg.Chunker)
	if err != nil {
		return nil, err
	}

	indexer := services.NewIndexService(chunker, embedder, index, cfg.Embedding,
		services.WithIndexStore(store.IndexStore()),
		services.WithIndexMetrics(metrics),
	)
	if err := indexer.Load(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("loading index: %w", err)
	}

	retriever := services.NewRetrieverService(embedder, index, cfg.Retriever, metrics)
	answer := services.NewAnswerService(retriever, services.NewAssembler(), providers.LLMService,
		cfg.Assembler, cfg.LLM.MaxTokens)

	registry := normalisers.DefaultRegistry()

	return &cli.Pipeline{
		Config:    cfg,
		Indexer:   indexer,
		Retriever: retriever,
		Answer:    answer,
		NewSync: func(paths []string, manifestPath string) (driving.SyncOrchestrator, error) {
			opts := []filesystem.Option{filesystem.WithMIMEFilter(registry.Supports)}
			if manifestPath != "" {
				manifest, err := filesystem.LoadManifest(manifestPath)
				if err != nil {
					return nil, err
				}
				opts = append(opts, filesystem.WithManifest(manifest))
			}
			conn := filesystem.New(paths, opts...)
			return services.NewSyncOrchestrator([]driven.Connector{conn}, registry, indexer), nil
		},
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Warnings: providers.Warnings,
		Close:    closeAll,
	}, nil
}

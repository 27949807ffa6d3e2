// Command analyzer ingests personal chat exports into a vector store and
// serves search, reconstruction, and statistics over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	redisadapter "github.com/triepod-ai/claude-ai-conversation-analyzer/internal/adapters/driven/cache/redis"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/adapters/driven/config/file"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/adapters/driven/vectorstore/chroma"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/adapters/driving/cli"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/chunker"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/services"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/ledger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := file.Load("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// The vector store is the system of record. Unreachable means no
	// useful work, so fail loudly and immediately.
	store, err := chroma.New(cfg.ChromaURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Heartbeat(ctx); err != nil {
		return fmt.Errorf("vector store unreachable: %w", err)
	}

	// The cache is an optional speedup. Unreachable means a warning and
	// degraded (always-miss) operation, never a refusal to start.
	var cache driven.Cache
	if cfg.RedisAddr != "" {
		rc := redisadapter.New(cfg.RedisAddr)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache unreachable, continuing without it: %v\n", err)
		}
		cache = rc
	}

	led := ledger.Load(cfg.LedgerPath)
	splitter := chunker.New(
		chunker.WithMaxLen(cfg.ChunkMaxLen),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	searchSvc := services.NewSearchService(store, cache,
		services.WithBatchWorkers(cfg.BatchWorkers),
		services.WithRateLimit(cfg.RateLimit),
	)
	reconstructSvc := services.NewReconstructService(store)
	ingestSvc := services.NewIngestService(store, cache, led, splitter)

	cli.SetServices(searchSvc, reconstructSvc, ingestSvc)
	return cli.Execute(ctx)
}

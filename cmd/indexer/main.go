package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paylist-tw/docsearch/internal/docstore"
	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/events"
	"github.com/paylist-tw/docsearch/internal/extract"
	"github.com/paylist-tw/docsearch/internal/indexer"
	"github.com/paylist-tw/docsearch/internal/indexstore"
	"github.com/paylist-tw/docsearch/internal/tokenizer"
	"github.com/paylist-tw/docsearch/pkg/config"
	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
	"github.com/paylist-tw/docsearch/pkg/health"
	"github.com/paylist-tw/docsearch/pkg/kafka"
	"github.com/paylist-tw/docsearch/pkg/logger"
	"github.com/paylist-tw/docsearch/pkg/metrics"
	"github.com/paylist-tw/docsearch/pkg/postgres"
	"github.com/paylist-tw/docsearch/pkg/resilience"
)

// service wires the extract-build-persist-notify pipeline.
type service struct {
	cfg      *config.Config
	runner   *extract.Runner
	builder  *indexer.Builder
	archive  *docstore.Store
	complete *kafka.Producer
	flush    *kafka.Producer
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	once := flag.Bool("once", false, "run one build and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"source_dir", cfg.Extract.SourceDir,
		"index_dir", cfg.Index.Dir,
		"once", *once)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok, err := tokenizer.NewDefault()
	if err != nil {
		slog.Error("failed to load segmentation dictionary", "error", err)
		os.Exit(1)
	}

	store := indexstore.New(cfg.Index.Dir)
	svc := &service{
		cfg:     cfg,
		runner:  extract.NewRunner(cfg.Extract.Workers, extract.JSONParser{}),
		builder: indexer.NewBuilder(tok, store),
	}

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		svc.archive = docstore.New(pg)
		if err := svc.archive.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare document archive", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Kafka.Enabled {
		svc.complete = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer svc.complete.Close()
		svc.flush = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
		defer svc.flush.Close()
	}

	if err := svc.rebuild(ctx); err != nil {
		slog.Error("initial build failed", "error", err)
		if *once {
			os.Exit(1)
		}
	}
	if *once {
		slog.Info("indexer finished")
		return
	}

	checker := health.NewChecker()
	checker.Register("builder", func(ctx context.Context) health.ComponentHealth {
		if svc.builder.Building() {
			return health.Up("building")
		}
		return health.Up("idle")
	})
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, checker)
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ReindexRequest, svc.handleReindexRequest)
		slog.Info("indexer ready, consuming rebuild requests",
			"topic", cfg.Kafka.Topics.ReindexRequest,
			"group", cfg.Kafka.ConsumerGroup)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	} else {
		slog.Info("kafka disabled, indexer idle until terminated")
		<-ctx.Done()
	}

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}
	slog.Info("indexer service stopped")
}

// handleReindexRequest runs a rebuild for each request. A build already in
// flight is not an error; the request is dropped rather than queued.
func (s *service) handleReindexRequest(ctx context.Context, key, value []byte) error {
	req, err := kafka.DecodeJSON[events.ReindexRequest](value)
	if err != nil {
		slog.Warn("ignoring malformed reindex request", "error", err)
		return nil
	}
	slog.Info("reindex requested", "reason", req.Reason, "requested_by", req.RequestedBy)

	if err := s.rebuild(ctx); err != nil {
		if errors.Is(err, apperrors.ErrBuildInProgress) {
			slog.Warn("rebuild skipped, build already in progress")
			return nil
		}
		return err
	}
	return nil
}

// rebuild runs the full pipeline: extract, archive, build, persist, notify.
func (s *service) rebuild(ctx context.Context) error {
	docs, err := s.runner.Run(ctx, s.cfg.Extract.SourceDir)
	if err != nil {
		return fmt.Errorf("extracting documents: %w", err)
	}

	s.archiveBatch(ctx, docs)

	snap, err := s.builder.Build(ctx, docs)
	if err != nil {
		// A snapshot alongside the error means memory built fine but the
		// persist step failed; readers of this process would still be
		// usable, so report but do not discard.
		if snap != nil {
			slog.Error("snapshot built but not persisted", "error", err)
		}
		return err
	}

	s.notify(ctx, snap.Meta.TotalDocuments, snap.Meta.TotalTerms)
	return nil
}

func (s *service) archiveBatch(ctx context.Context, docs []document.Document) {
	if s.archive == nil {
		return
	}
	err := resilience.Retry(ctx, "archive-documents", resilience.RetryConfig{}, func() error {
		return s.archive.SaveBatch(ctx, docs)
	})
	if err != nil {
		// The archive is a warm-up convenience, not part of the build.
		slog.Error("failed to archive document batch", "error", err)
	}
}

func (s *service) notify(ctx context.Context, docCount, termCount int) {
	if s.complete == nil {
		return
	}
	now := time.Now().UTC()
	err := resilience.Retry(ctx, "publish-index-complete", resilience.RetryConfig{}, func() error {
		return s.complete.Publish(ctx, kafka.Event{
			Key: "index-complete",
			Value: events.IndexComplete{
				Documents:   docCount,
				Terms:       termCount,
				CompletedAt: now,
			},
		})
	})
	if err != nil {
		slog.Error("failed to publish index-complete", "error", err)
	}

	err = resilience.Retry(ctx, "publish-cache-invalidate", resilience.RetryConfig{}, func() error {
		return s.flush.Publish(ctx, kafka.Event{
			Key:   "cache-invalidate",
			Value: events.CacheInvalidate{Reason: "index rebuilt", At: now},
		})
	})
	if err != nil {
		slog.Error("failed to publish cache-invalidate", "error", err)
	}
}

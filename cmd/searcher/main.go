package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paylist-tw/docsearch/internal/doccache"
	"github.com/paylist-tw/docsearch/internal/docstore"
	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/events"
	"github.com/paylist-tw/docsearch/internal/extract"
	"github.com/paylist-tw/docsearch/internal/indexstore"
	"github.com/paylist-tw/docsearch/internal/searcher"
	"github.com/paylist-tw/docsearch/internal/searcher/cache"
	"github.com/paylist-tw/docsearch/internal/tokenizer"
	"github.com/paylist-tw/docsearch/pkg/config"
	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
	"github.com/paylist-tw/docsearch/pkg/health"
	"github.com/paylist-tw/docsearch/pkg/kafka"
	"github.com/paylist-tw/docsearch/pkg/logger"
	"github.com/paylist-tw/docsearch/pkg/metrics"
	"github.com/paylist-tw/docsearch/pkg/postgres"
	pkgredis "github.com/paylist-tw/docsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	query := flag.String("q", "", "run one search query, print results as JSON, and exit")
	suggest := flag.String("suggest", "", "run one suggestion prefix, print results as JSON, and exit")
	limit := flag.Int("limit", 0, "result limit for -q / -suggest")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "index_dir", cfg.Index.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok, err := tokenizer.NewDefault()
	if err != nil {
		slog.Error("failed to load segmentation dictionary", "error", err)
		os.Exit(1)
	}

	store := indexstore.New(cfg.Index.Dir)

	var redisClient *pkgredis.Client
	var queryCache *cache.QueryCache
	var contentMirror *doccache.Redis
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			contentMirror = doccache.NewRedis(redisClient, contentMirrorTTL)
			if cfg.Search.CacheEnabled {
				queryCache = cache.New(redisClient, cfg.Search.QueryCacheTTL)
				slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Search.QueryCacheTTL)
			}
		}
	}

	var archive *docstore.Store
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, content warm-up falls back to extraction output", "error", err)
		} else {
			defer pg.Close()
			archive = docstore.New(pg)
		}
	}

	contentCache := doccache.NewMemory()
	warmContentCache(ctx, cfg, archive, contentCache, contentMirror)

	// When this replica cannot warm its own copy, fall back to reading
	// content another replica mirrored into redis.
	var content searcher.ContentCache = contentCache
	if contentCache.Len() == 0 && contentMirror != nil {
		slog.Info("serving snippet content from the redis mirror")
		content = contentMirror
	}
	engine := searcher.New(tok, content)
	loadSnapshot(ctx, store, engine)

	if *query != "" || *suggest != "" {
		runOnce(ctx, engine, queryCache, *query, *suggest, *limit)
		return
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		meta, ok := engine.Meta()
		if !ok {
			return health.Down(apperrors.ErrIndexNotReady)
		}
		return health.Up(fmt.Sprintf("%d documents, %d terms", meta.TotalDocuments, meta.TotalTerms))
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.Down(err)
			}
			return health.Up("")
		})
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, checker)
	}

	if cfg.Kafka.Enabled {
		reload := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete,
			func(ctx context.Context, key, value []byte) error {
				evt, err := kafka.DecodeJSON[events.IndexComplete](value)
				if err != nil {
					slog.Warn("ignoring malformed index-complete event", "error", err)
					return nil
				}
				slog.Info("index rebuild announced", "documents", evt.Documents, "terms", evt.Terms)
				warmContentCache(ctx, cfg, archive, contentCache, contentMirror)
				loadSnapshot(ctx, store, engine)
				return nil
			})
		go func() {
			if err := reload.Start(ctx); err != nil {
				slog.Error("index-complete consumer error", "error", err)
			}
		}()

		if queryCache != nil {
			flush := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate,
				func(ctx context.Context, key, value []byte) error {
					if err := queryCache.Invalidate(ctx); err != nil {
						slog.Error("query cache invalidation failed", "error", err)
					}
					return nil
				})
			go func() {
				if err := flush.Start(ctx); err != nil {
					slog.Error("cache-invalidate consumer error", "error", err)
				}
			}()
		}
	}

	slog.Info("search service ready", "index_loaded", engine.Ready())
	<-ctx.Done()

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}
	slog.Info("search service stopped")
}

// loadSnapshot installs the latest persisted snapshot. A missing snapshot
// leaves the engine in its not-ready state instead of failing startup.
func loadSnapshot(ctx context.Context, store *indexstore.Store, engine *searcher.Engine) {
	snap, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSnapshot) {
			slog.Warn("no index snapshot available yet", "dir", store.Dir())
			return
		}
		slog.Error("failed to load index snapshot", "error", err)
		return
	}
	engine.Install(snap)
}

// contentMirrorTTL bounds how long mirrored document content outlives the
// replica that wrote it.
const contentMirrorTTL = 24 * time.Hour

// warmContentCache fills the snippet content cache, preferring the postgres
// archive and falling back to the extraction output directory. Warmed
// content is mirrored into redis for replicas with neither source.
func warmContentCache(ctx context.Context, cfg *config.Config, archive *docstore.Store, contentCache *doccache.Memory, mirror *doccache.Redis) {
	var docs []document.Document
	if archive != nil {
		loaded, err := archive.LoadAll(ctx)
		if err != nil {
			slog.Warn("archive warm-up failed, falling back to extraction output", "error", err)
		} else {
			docs = loaded
			slog.Info("content cache warmed from archive", "documents", len(docs))
		}
	}
	if docs == nil {
		loaded, err := extract.NewRunner(cfg.Extract.Workers, extract.JSONParser{}).Run(ctx, cfg.Extract.SourceDir)
		if err != nil {
			slog.Warn("content cache warm-up failed, snippets degraded", "error", err)
			return
		}
		docs = loaded
		slog.Info("content cache warmed from extraction output", "documents", len(docs))
	}
	contentCache.Replace(docs)

	if mirror != nil {
		for i := range docs {
			if err := mirror.Put(ctx, &docs[i]); err != nil {
				slog.Warn("content mirror write failed", "doc_id", docs[i].DocID, "error", err)
				break
			}
		}
	}
}

// runOnce serves a single operator query on the command line.
func runOnce(ctx context.Context, engine *searcher.Engine, queryCache *cache.QueryCache, query, prefix string, limit int) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if query != "" {
		start := time.Now()
		resp, cached, err := searchWithCache(ctx, engine, queryCache, query, limit)
		if err != nil {
			slog.Error("search failed", "error", err)
			os.Exit(1)
		}
		status := "bypass"
		if queryCache != nil {
			status = "miss"
			if cached {
				status = "hit"
			}
		}
		metrics.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
		enc.Encode(resp)
	}

	if prefix != "" {
		suggestions, err := engine.Suggest(ctx, prefix, limit)
		if err != nil {
			slog.Error("suggest failed", "error", err)
			os.Exit(1)
		}
		enc.Encode(suggestions)
	}
}

func searchWithCache(ctx context.Context, engine *searcher.Engine, queryCache *cache.QueryCache, query string, limit int) (*cache.Response, bool, error) {
	compute := func() (*cache.Response, error) {
		results, total, err := engine.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return &cache.Response{Results: results, Total: total}, nil
	}
	if queryCache == nil {
		resp, err := compute()
		return resp, false, err
	}
	return queryCache.GetOrCompute(ctx, query, limit, compute)
}

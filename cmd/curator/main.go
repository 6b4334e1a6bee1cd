package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/api"
	"github.com/user/curation-service/internal/config"
	"github.com/user/curation-service/internal/extractor"
	"github.com/user/curation-service/internal/fetcher"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/pinning"
	"github.com/user/curation-service/internal/pipeline"
	"github.com/user/curation-service/internal/proxy"
	"github.com/user/curation-service/internal/storage"
	"github.com/user/curation-service/internal/summarizer"
	"github.com/user/curation-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Storage Layer
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open article store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	var cache api.PreviewCache
	switch {
	case cfg.PreviewCacheTTL <= 0:
	case cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		cache = storage.NewPreviewCache(rdb, cfg.PreviewCacheTTLDuration())
	case cfg.PreviewCacheSize > 0:
		cache = storage.NewLocalPreviewCache(cfg.PreviewCacheSize, cfg.PreviewCacheTTLDuration())
	}

	// Initialize Fetching, Proxies
	proxyManager := proxy.NewManager(cfg.ProxyList())
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:     cfg.FetchTimeoutDuration(),
		MaxRetries:  cfg.FetchMaxRetries,
		InsecureTLS: cfg.FetchInsecureTLS,
		BrowserTLS:  cfg.FetchTLSFingerprint,
		Proxies:     proxyManager,
		Metrics:     metrics,
		Logger:      log,
	})

	var renderer fetcher.Fetcher
	if cfg.RenderSocial {
		r := fetcher.NewRenderer(cfg.RenderTimeoutDuration(), proxyManager, metrics, log)
		defer r.Close()
		renderer = r
	}

	// Initialize Extraction, Summarization
	registry := extractor.NewRegistry(extractor.Options{
		ProfilePolicy:      extractor.ProfileImagePolicy{MaxSquareDim: cfg.ProfileImageMaxDim},
		SocialAPlaceholder: cfg.SocialAPlaceholderImage,
		SocialBPlaceholder: cfg.SocialBPlaceholderImage,
		Logger:             log,
	})

	var chat summarizer.ChatClient
	if cfg.LLMAPIKey != "" {
		chat = summarizer.NewGroqClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, float32(cfg.LLMTemperature), cfg.LLMTimeoutDuration())
	} else {
		log.Warn("GROQ_API_KEY not set, summaries will use the fallback")
	}
	engine := summarizer.New(chat, summarizer.Options{
		QuickPass:      cfg.SummaryQuickPass,
		ShortThreshold: cfg.SummaryShortThreshold,
		Metrics:        metrics,
		Logger:         log,
	})

	previews := pipeline.NewService(httpFetcher, renderer, registry, engine, metrics, log)

	pinner, err := openPinner(ctx, cfg)
	if err != nil {
		log.Fatal("failed to configure pinning", zap.String("provider", cfg.PinProvider), zap.Error(err))
	}

	// Initialize API Server
	server := api.NewServer(":"+cfg.ServerPort, previews, store, cache, pinner, metrics, log)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()

	log.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("cache", cache != nil),
		zap.Bool("render_social", cfg.RenderSocial),
		zap.String("pin_provider", cfg.PinProvider))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.ArticleStore, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "mongo":
		m, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.Close(ctx)
		}, nil
	case "memory", "":
		return storage.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPinner(ctx context.Context, cfg *config.Config) (pinning.Pinner, error) {
	switch cfg.PinProvider {
	case "pinata":
		if cfg.PinataAPIKey == "" || cfg.PinataSecretKey == "" {
			return nil, fmt.Errorf("pinata requires PINATA_API_KEY and PINATA_SECRET_KEY")
		}
		return pinning.NewPinata("", cfg.PinataAPIKey, cfg.PinataSecretKey, 30*time.Second), nil
	case "s3":
		if cfg.PinS3Bucket == "" {
			return nil, fmt.Errorf("s3 pinning requires PIN_S3_BUCKET")
		}
		s3Pinner, err := pinning.NewS3(ctx, cfg.PinS3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return s3Pinner, nil
	case "none", "":
		return pinning.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown pin provider %q", cfg.PinProvider)
	}
}

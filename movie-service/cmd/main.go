package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/cache"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/config"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/consumer"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/handler"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/service"
	"github.com/weiawesome/cinema-chronicles/pkg/database"
	"github.com/weiawesome/cinema-chronicles/pkg/inflight"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/middleware"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
	"github.com/weiawesome/cinema-chronicles/pkg/searchcache"
	"github.com/weiawesome/cinema-chronicles/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: "movie-service",
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

	// Initialize Redis cache
	redisClient, err := cache.Connect(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	sharedCache := cache.NewRedisCache(redisClient, cfg.Cache.Prefix)
	defer sharedCache.Close()
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Upstream movie database
	group := inflight.New(inflight.WithObserver(collector.RecordDedup))
	tmdb := repository.NewTMDBCatalog(cfg.TMDB, group, repository.WithUpstreamObserver(collector.RecordUpstream))
	if cfg.TMDB.APIKey == "" {
		logger.Warn().Msg("TMDB_API_KEY is not set; listings will fall back to saved movies")
	}

	// Optional Elasticsearch index of saved movies
	var index repository.MovieIndex
	if len(cfg.Elasticsearch.Addresses) > 0 {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
		}
		res, err := esClient.Info()
		if err != nil {
			logger.Warn().Err(err).Msg("elasticsearch unreachable; search fallback uses the database")
		} else {
			res.Body.Close()
			index = repository.NewESMovieIndex(esClient, cfg.Elasticsearch.Index)
			logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")
		}
	}

	// Event bus
	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pubsub")
	}
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("pubsub ready")

	// Export storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create storage")
	}

	// Tokens
	tokens, err := jwt.NewManager(cfg.JWT)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}
	if cfg.JWT.PrivateKeyPath == "" {
		logger.Warn().Msg("JWT_PRIVATE_KEY_PATH is not set; sessions end on restart")
	}

	// Repositories
	movieRepo := repository.NewGormMovieRepository(db)
	libraryRepo := repository.NewGormLibraryRepository(db)
	accountRepo := repository.NewGormAccountRepository(db)
	preferencesRepo := repository.NewGormPreferencesRepository(db)

	// Services
	images := domain.Images{BaseURL: cfg.TMDB.ImageBaseURL, Size: cfg.TMDB.PosterSize}
	catalogService := service.NewCatalogService(service.CatalogDeps{
		TMDB:    tmdb,
		Movies:  movieRepo,
		Library: libraryRepo,
		Index:   index,
		Cache:   sharedCache,
		Metrics: collector,
	}, service.CatalogConfig{
		Images:         images,
		Region:         cfg.TMDB.Region,
		TTLList:        cfg.Cache.TTLList,
		TTLDetails:     cfg.Cache.TTLDetails,
		TTLGenres:      cfg.Cache.TTLGenres,
		SearchTTL:      cfg.Cache.SearchTTL,
		SearchCapacity: cfg.Cache.SearchCapacity,
	})
	preferencesService := service.NewPreferencesService(preferencesRepo, bus, collector)
	libraryService := service.NewLibraryService(service.LibraryDeps{
		Catalog:     catalogService,
		Library:     libraryRepo,
		Preferences: preferencesRepo,
		Cache:       sharedCache,
		Publisher:   bus,
		Metrics:     collector,
		Images:      images,
		StatsTTL:    cfg.Cache.TTLStats,
	})
	userDataService := service.NewUserDataService(func(ctx context.Context, userID uint) prefs.Repository {
		key := sharedCache.BuildKey("session", strconv.FormatUint(uint64(userID), 10))
		return prefs.NewRedisStore(ctx, redisClient, key, cfg.Cache.TTLUserData)
	})
	exportService := service.NewExportService(service.ExportDeps{
		Library:     libraryRepo,
		Preferences: preferencesService,
		Storage:     store,
		Publisher:   bus,
		Metrics:     collector,
		URLExpiry:   cfg.Export.URLExpiry,
	})
	accountService := service.NewAccountService(accountRepo, tokens)

	// Background work
	activity := consumer.NewActivityConsumer(bus, libraryService, collector)
	if err := activity.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start activity consumer")
	}

	searchCache := catalogService.SearchCache()
	collector.WatchSearchCacheSize(searchCache.Len)
	sweeper := searchcache.NewSweeper(searchCache, cfg.Cache.SweepInterval, "search")
	sweeper.Start(ctx)

	go pruneRevocations(ctx, tokens, time.Hour)

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(handler.Services{
		Catalog:     catalogService,
		Library:     libraryService,
		Preferences: preferencesService,
		UserData:    userDataService,
		Exports:     exportService,
		Accounts:    accountService,
	}, middleware.NewAuthMiddleware(tokens), middleware.NewCSRF(cfg.CSRF))

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("movie-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
		metricsSrv = &http.Server{
			Addr:    metricsAddr,
			Handler: pkglog.HTTPMiddleware(logger, "/metrics")(mux),
		}
		go func() {
			logger.Info().Str("addr", metricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server...")

	cancel()
	if err := activity.Close(); err != nil {
		logger.Warn().Err(err).Msg("activity consumer close failed")
	}
	sweeper.Stop()
	<-sweeper.Done()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics server forced to shutdown")
		}
	}
	if err := bus.Close(); err != nil {
		logger.Warn().Err(err).Msg("pubsub close failed")
	}

	logger.Info().Msg("server exited")
}

// pruneRevocations periodically forgets logout revocations whose tokens
// have all expired.
func pruneRevocations(ctx context.Context, tokens *jwt.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tokens.PruneRevocations(); n > 0 {
				l := pkglog.L()
				l.Debug().Int("pruned", n).Msg("token revocations pruned")
			}
		}
	}
}

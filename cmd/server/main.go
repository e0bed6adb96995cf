package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	apihttp "github.com/themalagasywizard/IHUB-4.1/internal/api/http"
	"github.com/themalagasywizard/IHUB-4.1/internal/app"
	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
	"github.com/themalagasywizard/IHUB-4.1/internal/providers/tmdb"
	"github.com/themalagasywizard/IHUB-4.1/internal/telemetry"
	"github.com/themalagasywizard/IHUB-4.1/internal/view"
)

const serviceName = "discovery"

func main() {
	dotenvErr := app.LoadDotEnv(os.Getenv("ENV_FILE"))
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	slog.SetDefault(logger)
	if dotenvErr != nil {
		logger.Warn("dotenv load failed", slog.String("error", dotenvErr.Error()))
	}
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), serviceName)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", serviceName),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("hasMongo", strings.TrimSpace(cfg.MongoURI) != ""),
		slog.Duration("homeCacheTTL", cfg.HomeCacheTTL),
		slog.String("embedPrimary", cfg.EmbedPrimaryURL),
		slog.String("embedFallback", cfg.EmbedFallbackURL),
	)
	if cfg.TMDBAPIKey == "" {
		logger.Warn("TMDB_API_KEY not set, every list will be empty")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := connectRedis(rootCtx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tmdbClient := tmdb.NewClient(tmdb.Config{
		APIKey:            cfg.TMDBAPIKey,
		BaseURL:           cfg.TMDBBaseURL,
		ImageBaseURL:      cfg.TMDBImageBaseURL,
		Client:            &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:             redisClient,
		CacheTTL:          cfg.TMDBCacheTTL,
		RequestsPerSecond: cfg.TMDBRequestsPerSec,
		Retry:             retryConfig(cfg.TMDBRetryAttempts),
		Logger:            logger,
	})

	catalogService := catalog.NewService(tmdbClient, buildCatalogOptions(cfg, redisClient, logger)...)
	catalogService.StartBackground(rootCtx)

	store, closeStore := buildFavoritesStore(rootCtx, cfg, logger)
	defer closeStore()
	favoritesService := favorites.NewService(store)

	hosts := embed.Hosts{Primary: cfg.EmbedPrimaryURL, Fallback: cfg.EmbedFallbackURL}
	prober := embed.NewProber(
		&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cfg.EmbedProbeTimeout,
		logger,
	)

	sessions := view.NewManager(view.Deps{
		Catalog:   catalogService,
		Favorites: favoritesService,
		Player:    prober,
		Hosts:     hosts,
	}, view.WithLogger(logger), view.WithSessionTTL(cfg.SessionTTL))
	go sessions.Run(rootCtx)

	apiServer := apihttp.NewServer(catalogService,
		apihttp.WithLogger(logger),
		apihttp.WithFavorites(favoritesService),
		apihttp.WithPlayer(prober),
		apihttp.WithEmbedHosts(hosts),
		apihttp.WithSessions(sessions),
		apihttp.WithImages(tmdbClient, nil),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		apihttp.WithCORSOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithRequestTimeout(cfg.RequestTimeout),
	)
	defer apiServer.Close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// WebSocket streams outlive any fixed write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("discovery service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("discovery service stopped")
}

// newLogger writes to stdout, and additionally to a rotating file when
// path is set.
func newLogger(levelRaw, formatRaw, path string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	if path = strings.TrimSpace(path); path != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, options))
	}
	return slog.New(slog.NewTextHandler(out, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func retryConfig(attempts int) tmdb.RetryConfig {
	retry := tmdb.DefaultRetryConfig()
	if attempts > 0 {
		retry.MaxAttempts = attempts
	}
	return retry
}

func connectRedis(ctx context.Context, cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func buildCatalogOptions(cfg app.Config, redisClient *redis.Client, logger *slog.Logger) []catalog.ServiceOption {
	opts := []catalog.ServiceOption{catalog.WithLogger(logger)}
	if cfg.HomeCacheDisabled {
		return append(opts, catalog.WithCacheDisabled(true))
	}
	if cfg.HomeCacheTTL > 0 {
		opts = append(opts, catalog.WithHomeCacheTTL(cfg.HomeCacheTTL))
	}
	if redisClient != nil {
		opts = append(opts, catalog.WithRedisCache(catalog.NewRedisCacheBackend(redisClient)))
	}
	return opts
}

// buildFavoritesStore connects to MongoDB when configured and falls back to
// process memory otherwise.
func buildFavoritesStore(ctx context.Context, cfg app.Config, logger *slog.Logger) (favorites.Store, func()) {
	noop := func() {}
	uri := strings.TrimSpace(cfg.MongoURI)
	if uri == "" {
		logger.Info("MONGO_URI not set, favorites kept in memory")
		return favorites.NewMemoryStore(), noop
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := favorites.Connect(connectCtx, uri, options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err == nil {
		err = client.Ping(connectCtx, readpref.Primary())
	}
	if err != nil {
		logger.Warn("mongo not reachable, favorites kept in memory", slog.String("error", err.Error()))
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return favorites.NewMemoryStore(), noop
	}
	logger.Info("mongo connected",
		slog.String("database", cfg.MongoDatabase),
		slog.String("collection", cfg.MongoCollection),
	)
	return favorites.NewMongoStore(client, cfg.MongoDatabase, cfg.MongoCollection), disconnect(client, logger)
}

func disconnect(client *mongo.Client, logger *slog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", slog.String("error", err.Error()))
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"videotube/auth"
	"videotube/cache"
	"videotube/crud"
	"videotube/events"
	"videotube/http"
	"videotube/storage"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	setupLogging(*productionBool)

	// Load configuration from a .config.json file if present, otherwise use the default dev setup.
	// In production the .config.json file is required and the app will panic if no file is found.
	config, err := LoadConfig(".", *productionBool)
	must(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Tracing.Endpoint != "" {
		shutdown, err := initTracing(ctx, config.Tracing, config.Env)
		must(err)
		defer shutdown(context.Background())
	}

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	must(Open(db, config.IsProd()))
	defer Close(db)
	must(AutoMigrate(db))

	// Events go to kafka when brokers are configured.
	var pub events.Publisher = events.Nop{}
	if len(config.Kafka.Brokers) > 0 {
		pub = events.NewKafka(config.Kafka.Brokers, config.Kafka.Topic)
		slog.Info("publishing events", "brokers", config.Kafka.Brokers, "topic", config.Kafka.Topic)
	}
	defer pub.Close()

	// Channel stats are cached in redis when an address is configured.
	var stats crud.StatsCache
	if config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, stats are computed on every request", "addr", config.Redis.Addr, "error", err)
		}
		statsCache := cache.NewStats(rdb, config.Redis.StatsTTL)
		pub = statsCache.Invalidating(pub)
		stats = statsCache
	}

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithEvents(pub),
		crud.WithUser(config.Pepper, config.HMACKey),
		crud.WithVideo(),
		crud.WithTweet(),
		crud.WithComment(),
		crud.WithLike(),
		crud.WithPlaylist(),
		crud.WithSubscription(),
		crud.WithDashboard(stats),
	)
	must(err)

	store, err := newStore(ctx, config.Storage)
	must(err)
	media := storage.NewMediaService(store)

	tokens := auth.NewTokens(config.JWT.AccessSecret, config.JWT.RefreshSecret, config.JWT.AccessTTL, config.JWT.RefreshTTL)

	// Set up a webserver.
	serverConfig := http.Config{
		SecureCookies:  config.IsProd(),
		CORSOrigin:     config.CORSOrigin,
		AuthRate:       config.RateLimit.RPS,
		AuthBurst:      config.RateLimit.Burst,
		TrustedProxies: config.TrustedProxies,
	}
	if config.Storage.Driver == "local" {
		serverConfig.MediaDir = config.Storage.Dir
	}
	server := http.NewServer(services, tokens, media, serverConfig)

	// Serve the app until SIGINT or SIGTERM.
	if err := server.Run(ctx, fmt.Sprintf(":%d", config.Port)); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newStore returns the media store selected by cfg.Driver.
func newStore(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "local":
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLocalStore(cfg.Dir, cfg.BaseURL), nil
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			BaseURL:   cfg.BaseURL,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// setupLogging logs JSON in production and text in development.
func setupLogging(isProd bool) {
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if isProd {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

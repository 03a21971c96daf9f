package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sheikhshariarnehal/nesttask-edge/api/routes"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/cachestore"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/clients"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/gateway"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/lifecycle"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/push"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/pushsubs"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/backoff"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/config"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/metrics"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/migrate"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/idempotency"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/pubsub"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/redis"

	"github.com/google/uuid"
)

const pushProcessedTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "edge"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "edge"

	logg = logger.New(logger.Options{
		ServiceName: "edge",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	// Offline gateway: versioned response cache plus network-first proxy.
	store, err := cachestore.NewRedisStore(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create cache store", err)
		os.Exit(1)
	}
	upstream, err := gateway.NewUpstream(cfg.Gateway.UpstreamOrigin, nil, cfg.Gateway.FetchTimeout)
	if err != nil {
		logg.Error(ctx, "failed to create upstream", err)
		os.Exit(1)
	}

	registry, err := clients.NewRegistry(logg)
	if err != nil {
		logg.Error(ctx, "failed to create client registry", err)
		os.Exit(1)
	}

	controller, err := lifecycle.NewController(lifecycle.ControllerParams{
		Logger:     logg,
		Store:      store,
		Fetcher:    upstream,
		Claimer:    registry,
		Generation: cfg.Gateway.CacheGeneration,
		Shell:      gateway.DefaultShell(cfg.Gateway.OfflinePath, cfg.Push.IconPath, cfg.Push.BadgePath),
	})
	if err != nil {
		logg.Error(ctx, "failed to create lifecycle controller", err)
		os.Exit(1)
	}

	interceptor, err := gateway.NewInterceptor(gateway.InterceptorParams{
		Logger:      logg,
		Store:       store,
		Upstream:    upstream,
		Generation:  cfg.Gateway.CacheGeneration,
		BackendHost: cfg.Gateway.BackendHost,
		OfflinePath: cfg.Gateway.OfflinePath,
		Timeout:     cfg.Gateway.FetchTimeout,
		Metrics:     metrics.NewGatewayMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(ctx, "failed to create gateway interceptor", err)
		os.Exit(1)
	}

	// Realtime feed: one receive loop fanned out to per-user sessions.
	source, err := feed.NewPubSubFeed(pubsubClient.TasksSubscription(), pubsubClient.AnnouncementSubscription(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create change feed", err)
		os.Exit(1)
	}
	bus, err := feed.NewBus(feed.BusParams{
		Logger: logg,
		Source: source,
		Policy: backoff.Policy{
			MaxAttempts: cfg.Feed.ReloadMaxAttempts,
			BaseDelay:   cfg.Feed.ReloadBaseDelay,
			MaxDelay:    cfg.Feed.ReloadMaxDelay,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create change bus", err)
		os.Exit(1)
	}

	feedRepo, err := feed.NewRepository(dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create feed repository", err)
		os.Exit(1)
	}
	sessions, err := feed.NewSessions(feed.SessionsParams{
		Logger: logg,
		Repo:   feedRepo,
		Bus:    bus,
		Policy: backoff.Policy{
			MaxAttempts: cfg.Feed.ReloadMaxAttempts,
			BaseDelay:   cfg.Feed.ReloadBaseDelay,
			MaxDelay:    cfg.Feed.ReloadMaxDelay,
		},
		OnUpdate: func(userID uuid.UUID) {
			for _, client := range registry.List() {
				if client.UserID == userID {
					_ = registry.Send(client.ID, clients.Message{Type: clients.MessageFeedUpdated})
				}
			}
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create feed sessions", err)
		os.Exit(1)
	}

	// Push delivery: consumer displays notifications, router handles clicks.
	displays := push.NewDisplay()
	idempotencyManager, err := idempotency.NewManager(redisClient, pushProcessedTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}
	pushConsumer, err := push.NewConsumer(displays, sessions, pubsubClient.PushSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(ctx, "failed to create push consumer", err)
		os.Exit(1)
	}
	clickRouter, err := push.NewRouter(displays, registry, logg)
	if err != nil {
		logg.Error(ctx, "failed to create click router", err)
		os.Exit(1)
	}

	registrar, err := pushsubs.NewWebPushRegistrar(cfg.Push.GatewayURL, cfg.Push.VAPIDPublicKey)
	if err != nil {
		logg.Error(ctx, "failed to create push registrar", err)
		os.Exit(1)
	}
	pushService, err := pushsubs.NewService(pushsubs.ServiceParams{
		Repo:      pushsubs.NewRepository(dbClient.DB()),
		Registrar: registrar,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create push subscription service", err)
		os.Exit(1)
	}

	// Prime the shell cache before taking traffic.
	if err := controller.Install(ctx); err != nil {
		logg.Error(ctx, "shell install failed", err)
		os.Exit(1)
	}
	if err := controller.Activate(ctx); err != nil {
		logg.Error(ctx, "shell activate failed", err)
		os.Exit(1)
	}

	go func() {
		if err := bus.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "change bus stopped", err)
		}
	}()
	go func() {
		if err := pushConsumer.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "push consumer stopped", err)
		}
	}()

	apiRouter := routes.NewRouter(cfg, logg, dbClient, redisClient, controller, sessions, feedRepo, registry, pushService, registrar, clickRouter)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"generation": cfg.Gateway.CacheGeneration,
	})
	logg.Info(startCtx, "starting edge server")

	server := &http.Server{
		Addr:    addr,
		Handler: rootHandler(apiRouter, interceptor),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "edge server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(startCtx, "edge server shutting down gracefully")
}

// rootHandler sends API and health traffic to the router and everything
// else through the offline gateway.
func rootHandler(api http.Handler, proxy http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/health/") {
			api.ServeHTTP(w, r)
			return
		}
		proxy.ServeHTTP(w, r)
	})
}

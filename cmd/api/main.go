package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pedidos/internal/catalog"
	"github.com/noah-isme/backend-pedidos/internal/closure"
	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/config"
	"github.com/noah-isme/backend-pedidos/internal/events"
	"github.com/noah-isme/backend-pedidos/internal/health"
	"github.com/noah-isme/backend-pedidos/internal/lock"
	"github.com/noah-isme/backend-pedidos/internal/money"
	"github.com/noah-isme/backend-pedidos/internal/obs"
	"github.com/noah-isme/backend-pedidos/internal/order"
	"github.com/noah-isme/backend-pedidos/internal/ratelimit"
	"github.com/noah-isme/backend-pedidos/internal/security"
	"github.com/noah-isme/backend-pedidos/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pedidos")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pedidos-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	kv := &store.Store{R: redisClient, Prefix: cfg.RedisKeyPrefix + ":", EventJournalMax: cfg.EventJournalMax}
	bus := &events.Bus{Journal: kv}

	catalogSvc, err := catalog.NewService(ctx, catalog.ServiceConfig{Store: kv, Events: bus})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	orderSvc := order.NewService(order.ServiceConfig{Catalog: catalogSvc, Events: bus})
	bus.Subscribe(orderSvc)

	locker := lock.Locker{R: redisClient}
	closureSvc, err := closure.NewService(ctx, closure.ServiceConfig{
		Orders:  orderSvc,
		Store:   kv,
		Events:  bus,
		Locker:  locker,
		LockTTL: cfg.ClosureLockTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise closure service")
	}

	formatter, err := money.NewFormatter(cfg.MoneyLocale, cfg.CurrencySymbol)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise money formatter")
	}

	validate := validator.New()
	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate}
	orderHandler := &order.Handler{Svc: orderSvc, Validate: validate, Formatter: formatter}
	closureHandler := &closure.Handler{Svc: closureSvc, Validate: validate, Formatter: formatter}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: cfg.RedisKeyPrefix + ":rl:"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: time.Minute,
			Max:    cfg.RateLimitPerMinute,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter")
		},
	}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(limiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker:      readinessChecker{redis: redisClient},
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)
		v.Get("/products/{id}", catalogHandler.Get)
		v.Post("/products", catalogHandler.Upsert)
		v.Delete("/products/{id}", catalogHandler.Delete)

		v.Get("/orders", orderHandler.List)
		v.Route("/orders/current", func(c chi.Router) {
			c.Get("/", orderHandler.Current)
			c.Post("/start", orderHandler.Start)
			c.Post("/items", orderHandler.AddItem)
			c.Delete("/items/{index}", orderHandler.RemoveItem)
			c.With(idem.Middleware).Post("/commit", orderHandler.Commit)
		})

		v.Get("/closures", closureHandler.List)
		v.With(idem.Middleware).Post("/closures", closureHandler.Create)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/events"
	"faraid/internal/inheritance/handler"
	inheritanceMetrics "faraid/internal/inheritance/metrics"
	"faraid/internal/inheritance/service"
	"faraid/internal/inheritance/store"
	"faraid/internal/platform/config"
	"faraid/internal/platform/httpserver"
	jwttoken "faraid/internal/platform/jwt"
	"faraid/internal/platform/kafka"
	"faraid/internal/platform/logger"
	httpMetrics "faraid/internal/platform/metrics"
	"faraid/internal/platform/middleware"
	"faraid/internal/platform/postgres"
	"faraid/internal/platform/redis"
	ratelimitMetrics "faraid/internal/ratelimit/metrics"
	ratelimit "faraid/internal/ratelimit/middleware"
	ratestore "faraid/internal/ratelimit/store"
	"faraid/pkg/platform/circuit"
	"faraid/pkg/platform/httputil"
)

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
// Calculation logic lives in internal/inheritance.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

type healthCheck func(ctx context.Context) error

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	calcMetrics := inheritanceMetrics.New(reg)

	policy, err := engine.ParseSpouseConflictPolicy(cfg.Engine.SpouseConflict)
	if err != nil {
		return err
	}
	engineOpts := []engine.Option{engine.WithSpouseConflictPolicy(policy)}
	if cfg.Engine.CacheSize > 0 {
		engineOpts = append(engineOpts,
			engine.WithCache(engine.NewResultCache(cfg.Engine.CacheSize)),
			engine.WithCacheObserver(calcMetrics.RecordCacheLookup),
		)
	}
	eng := engine.New(engineOpts...)

	checks := map[string]healthCheck{}
	redisClient, err := openRedis(ctx, cfg, checks)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	history, closeHistory, err := openHistory(ctx, cfg, redisClient, checks)
	if err != nil {
		return err
	}
	defer closeHistory()

	publisher, closePublisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	svc := service.New(eng,
		service.WithLogger(log),
		service.WithMetrics(calcMetrics),
		service.WithHistoryStore(history),
		service.WithEventPublisher(publisher),
		service.WithListLimit(cfg.History.ListLimit),
	)
	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientIP)
	r.Use(middleware.AccessLog(log))
	r.Use(httpMetrics.New(reg).Middleware)

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", httpMetrics.Handler(reg))
	var handlerOpts []handler.Option
	if cfg.RateLimit.Requests > 0 {
		handlerOpts = append(handlerOpts, handler.WithRateLimiter(newRateLimiter(cfg, redisClient, reg, log)))
	}
	handler.New(svc, log, tokens, handlerOpts...).Register(r)

	log.Info("starting faraid",
		"addr", cfg.Addr,
		"history_backend", cfg.History.Backend,
		"events", len(cfg.Kafka.Brokers) > 0,
		"cache_size", cfg.Engine.CacheSize,
		"rate_limit", cfg.RateLimit.Requests,
	)
	return httpserver.Run(ctx, httpserver.New(cfg.Addr, r), log)
}

// openRedis connects only when a history or rate limit backend needs it.
func openRedis(ctx context.Context, cfg config.Config, checks map[string]healthCheck) (*redis.Client, error) {
	needed := cfg.History.Backend == config.BackendRedis ||
		(cfg.RateLimit.Requests > 0 && cfg.RateLimit.Backend == config.BackendRedis)
	if !needed {
		return nil, nil
	}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	checks["redis"] = client.Health
	return client, nil
}

func newRateLimiter(cfg config.Config, redisClient *redis.Client, reg prometheus.Registerer, log *slog.Logger) *ratelimit.Middleware {
	var st ratelimit.Store = ratestore.NewInMemoryStore()
	if cfg.RateLimit.Backend == config.BackendRedis {
		st = ratestore.NewRedisStore(redisClient.Client, cfg.Redis.KeyPrefix)
	}
	return ratelimit.New(st, cfg.RateLimit.Requests, cfg.RateLimit.Window, log,
		ratelimit.WithMetrics(ratelimitMetrics.New(reg)),
	)
}

func openHistory(ctx context.Context, cfg config.Config, redisClient *redis.Client, checks map[string]healthCheck) (service.HistoryStore, func(), error) {
	switch cfg.History.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		checks["postgres"] = pingDB(db)
		return pg, func() { _ = db.Close() }, nil
	case config.BackendRedis:
		return store.NewRedisStore(redisClient.Client, cfg.Redis.KeyPrefix), func() {}, nil
	default:
		return store.NewInMemoryStore(), func() {}, nil
	}
}

func openPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (service.EventPublisher, func(), error) {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return events.NoopPublisher{}, func() {}, nil
	}
	setupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := kafka.EnsureTopic(setupCtx, client, cfg.Kafka); err != nil {
		client.Close()
		return nil, nil, err
	}
	log.Info("publishing calculation events", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	breaker := circuit.New("kafka",
		circuit.WithFailureThreshold(cfg.Kafka.BreakerThreshold),
		circuit.WithCooldown(cfg.Kafka.BreakerCooldown),
	)
	publisher := events.NewGuardedPublisher(events.NewKafkaPublisher(client, cfg.Kafka.Topic), breaker, log)
	return publisher, closeKafka(client), nil
}

func closeKafka(client *kgo.Client) func() {
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Flush(flushCtx)
		client.Close()
	}
}

func pingDB(db *sql.DB) healthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}

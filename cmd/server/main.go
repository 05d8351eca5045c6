package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"verdict/internal/audit"
	"verdict/internal/decision"
	decisionhandler "verdict/internal/decision/handler"
	"verdict/internal/decision/metrics"
	"verdict/internal/platform/config"
	"verdict/internal/platform/database"
	"verdict/internal/platform/health"
	"verdict/internal/platform/httpserver"
	"verdict/internal/platform/kafka/producer"
	"verdict/internal/platform/logger"
	platformredis "verdict/internal/platform/redis"
	"verdict/internal/platform/tracer"
	httptransport "verdict/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing verdict",
		"addr", cfg.Addr,
		"metrics_addr", cfg.MetricsAddr,
		"version", cfg.SystemVersion,
	)

	evaluator, err := decision.NewEvaluator(cfg.Policy)
	if err != nil {
		log.Error("invalid decision policy configuration", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(cfg.SystemVersion)

	// Storage: Postgres when configured, in-memory otherwise.
	var store audit.Store
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		store = audit.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		log.Info("audit store: postgres")
	} else {
		store = audit.NewInMemoryStore()
		log.Warn("audit store: in-memory, entries will not survive restarts")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		store = audit.NewCachedStore(store, redisClient.Client, cfg.TrailCacheTTL, log)
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
		go func() {
			for range time.Tick(15 * time.Second) {
				redisClient.CollectPoolMetrics()
			}
		}()
		log.Info("audit trail cache: redis", "ttl", cfg.TrailCacheTTL)
	}

	recorderOpts := []audit.RecorderOption{audit.WithRecorderLogger(log)}
	if cfg.KafkaBrokers != "" {
		kafkaProducer, err := producer.New(producer.Config{
			Brokers: cfg.KafkaBrokers,
			Retries: 3,
		}, log)
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		recorderOpts = append(recorderOpts, audit.WithProducer(kafkaProducer, audit.DefaultTopic))
		log.Info("audit fan-out: kafka", "topic", audit.DefaultTopic)
	}
	recorder := audit.NewRecorder(store, cfg.SystemVersion, recorderOpts...)

	service := decision.NewService(evaluator, recorder,
		decision.WithLogger(log),
		decision.WithMetrics(metrics.New()),
		decision.WithTracer(tracer.NewOTel("verdict")),
	)

	handler := decisionhandler.New(service, recorder, log)
	router := httptransport.NewRouter(httptransport.Config{
		JWTSigningKey:  cfg.JWTSigningKey,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
	}, handler, healthHandler, log)

	srv := httpserver.New(cfg.Addr, router)
	metricsSrv := httpserver.New(cfg.MetricsAddr, promhttp.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// Command parserd serves the parse API over HTTP.
//
// POST /api/v1/parse parses the posted document and returns its buffers
// and, on request, its tokens. POST /api/v1/documents queues a document on
// the raw-documents topic for the indexer, and GET /api/v1/documents/{uri}
// reads back what the indexer stored. Liveness and readiness are served at
// /health/live and /health/ready.
//
// Usage:
//
//	go run ./cmd/parserd [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting parse service", "port", cfg.Server.Port)

	table, err := fields.New(cfg.Fields)
	if err != nil {
		slog.Error("invalid field configuration", "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := parser.New(cfg, table, nil, parser.WithMetrics(m))
	checker := health.NewChecker()
	checker.Register("parser", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d metanames", len(table.MetaNames()))}
	})

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RawDocuments)
	defer producer.Close()
	opts := []handler.Option{handler.WithPublisher(producer, cfg.Kafka.Topics.RawDocuments)}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, document lookup disabled", "error", err)
	} else {
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db, true))

		var props handler.PropertyReader
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, property lookup disabled", "error", err)
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.PingCheck(redisClient, true))
			props = sink.NewPropertyStore(redisClient, cfg.Redis.PropertyTTL)
		}
		opts = append(opts, handler.WithStores(sink.NewDocumentStore(db), props))
	}

	h := handler.New(p, cfg.Server.MaxBodyBytes, opts...)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("parse service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("parse service stopped")
}

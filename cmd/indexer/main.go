// Command indexer consumes raw documents from Kafka, parses them and
// delivers each result to PostgreSQL, Redis and the parsed-documents topic.
// Metrics and health probes share the metrics port.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-tokens]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/consumer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	withTokens := flag.Bool("tokens", false, "include tokens in parsed-document events")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"topic", cfg.Kafka.Topics.RawDocuments,
		"group", cfg.Kafka.ConsumerGroup,
	)

	table, err := fields.New(cfg.Fields)
	if err != nil {
		slog.Error("invalid field configuration", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port,
			metrics.Route{Pattern: "GET /health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "GET /health/ready", Handler: checker.ReadyHandler()},
		)
		defer shutdownMetrics(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	checker.Register("postgres", health.PingCheck(db, false))
	documents := sink.NewDocumentStore(db)
	if err := documents.Migrate(ctx); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres")

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	checker.Register("redis", health.PingCheck(redisClient, false))
	slog.Info("connected to redis", "addr", cfg.Redis.Addr)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ParsedDocuments)
	defer producer.Close()

	fanout := sink.NewFanout(sink.Config{
		Retry:   resilience.RetryConfig{MaxAttempts: 5, InitialDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second},
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second},
		Timeout: 10 * time.Second,
	}, m,
		documents,
		sink.NewPropertyStore(redisClient, cfg.Redis.PropertyTTL),
		sink.NewPublisher(producer, *withTokens),
	)

	p := parser.New(cfg, table, fanout, parser.WithMetrics(m))
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RawDocuments, consumer.HandleMessage(p))

	slog.Info("indexer service ready, consuming from kafka")
	if err := kafkaConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}
	slog.Info("indexer service stopped")
}

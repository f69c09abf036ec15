// Package sink delivers finished documents to the stores around the
// parser: DocInfo rows in PostgreSQL, stored properties in Redis and the
// parsed-document topic in Kafka. Fanout ties them together as a
// parser.Handler with retries and one circuit breaker per sink.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/resilience"
)

// UpdateModeRemove in DocInfo.Update deletes the document from every sink
// instead of storing it.
const UpdateModeRemove = "remove"

// Sink stores one finished document.
type Sink interface {
	Name() string
	Write(ctx context.Context, res *parser.Result) error
}

// Permanent reports whether err will fail again on retry.
func Permanent(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrConfigMismatch)
}

func isRemoval(d *parser.DocInfo) bool {
	return strings.EqualFold(strings.TrimSpace(d.Update), UpdateModeRemove)
}

type Config struct {
	Retry   resilience.RetryConfig
	Breaker resilience.CircuitBreakerConfig
	// Timeout bounds one write attempt. Zero means no bound.
	Timeout time.Duration
}

type guarded struct {
	sink    Sink
	breaker *resilience.CircuitBreaker
}

// Fanout writes every document to all sinks concurrently.
type Fanout struct {
	sinks   []guarded
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewFanout(cfg Config, m *metrics.Metrics, sinks ...Sink) *Fanout {
	f := &Fanout{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "sink-fanout"),
	}
	if f.cfg.Retry.Retryable == nil {
		f.cfg.Retry.Retryable = func(err error) bool {
			return !Permanent(err) && !errors.Is(err, resilience.ErrCircuitOpen)
		}
	}
	for _, s := range sinks {
		bcfg := cfg.Breaker
		bcfg.OnStateChange = func(name string, to resilience.State) {
			m.SetBreakerState(name, int(to))
		}
		f.sinks = append(f.sinks, guarded{
			sink:    s,
			breaker: resilience.NewCircuitBreaker(s.Name(), bcfg),
		})
	}
	return f
}

// OnDocument implements parser.Handler. A failure in one sink does not
// stop the others; all failures are joined.
func (f *Fanout) OnDocument(ctx context.Context, res *parser.Result) error {
	errs := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, gs := range f.sinks {
		g.Go(func() error {
			errs[i] = f.write(ctx, gs, res)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (f *Fanout) write(ctx context.Context, gs guarded, res *parser.Result) error {
	name := gs.sink.Name()
	err := resilience.Retry(ctx, "sink."+name, f.cfg.Retry, func() error {
		return gs.breaker.Execute(func() error {
			return resilience.WithTimeout(ctx, f.cfg.Timeout, "sink."+name, func(ctx context.Context) error {
				return gs.sink.Write(ctx, res)
			})
		}, Permanent)
	})
	f.metrics.ObserveSink(name, err)
	if err != nil {
		f.logger.Error("sink write failed",
			"sink", name,
			"uri", res.DocInfo.URI,
			"error", err,
		)
		return fmt.Errorf("sink %s: %w", name, err)
	}
	return nil
}

// Breakers exposes the breaker of every sink, keyed by sink name.
func (f *Fanout) Breakers() map[string]*resilience.CircuitBreaker {
	out := make(map[string]*resilience.CircuitBreaker, len(f.sinks))
	for _, gs := range f.sinks {
		out[gs.sink.Name()] = gs.breaker
	}
	return out
}

package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/resilience"
)

func parsed(t *testing.T, uri, body string) *parser.Result {
	t.Helper()
	cfg := config.Default()
	table, err := fields.New(cfg.Fields)
	require.NoError(t, err)
	doc := parser.NewDocInfo(uri)
	doc.Mtime = time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
	res, err := parser.New(cfg, table, nil).ParseBuffer(context.Background(), doc, []byte(body))
	require.NoError(t, err)
	return res
}

const page = `<html><head><title>Hello</title></head><body><p>some words</p></body></html>`

func TestDocumentArgs(t *testing.T) {
	res := parsed(t, "a.html", page)

	args := documentArgs(res)
	require.Len(t, args, 10)
	assert.Equal(t, "a.html", args[0])
	assert.Equal(t, int64(len(page)), args[1])
	assert.Equal(t, sql.NullTime{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Valid: true}, args[2])
	assert.Equal(t, "text/html", args[3])
	assert.Equal(t, parser.TypeHTML, args[6])
	assert.Equal(t, 3, args[7])
	assert.Equal(t, false, args[9])
}

func TestMetaNameRowsSkipEmpty(t *testing.T) {
	res := parsed(t, "a.html", page)

	rows := metaNameRows(res)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.name)
	}
	assert.Equal(t, []string{fields.DefaultMetaName, fields.TitleMetaName}, names)
}

type fakeHash struct {
	data map[string]map[string]string
	ttl  time.Duration
	err  error
}

func (f *fakeHash) ReplaceHash(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = fields
	f.ttl = ttl
	return nil
}

func (f *fakeHash) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	return f.data[key], f.err
}

func (f *fakeHash) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return f.err
}

func TestPropertyStore(t *testing.T) {
	h := &fakeHash{data: map[string]map[string]string{}}
	s := NewPropertyStore(h, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, parsed(t, "a.html", page)))
	assert.Equal(t, time.Hour, h.ttl)

	props, err := s.Get(ctx, "a.html")
	require.NoError(t, err)
	assert.Equal(t, "Hello", props[fields.TitleProperty])
	assert.Equal(t, "some words", props[fields.DescriptionProperty])

	removal := parsed(t, "a.html", page)
	removal.DocInfo.Update = "Remove"
	require.NoError(t, s.Write(ctx, removal))
	assert.NotContains(t, h.data, "swish:props:a.html")
}

type fakeProducer struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (f *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func TestPublisherEvent(t *testing.T) {
	prod := &fakeProducer{}
	p := NewPublisher(prod, true)

	require.NoError(t, p.Write(context.Background(), parsed(t, "a.html", page)))
	require.Len(t, prod.events, 1)
	e := prod.events[0]
	assert.Equal(t, "a.html", e.Key)
	assert.Equal(t, parser.TypeHTML, e.Headers["Parser-Type"])
	assert.NotContains(t, e.Headers, "Update-Mode")
	doc := e.Value.(parser.ParsedDocument)
	assert.Len(t, doc.Tokens, 3)
}

type scriptedSink struct {
	name  string
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedSink) Name() string { return s.name }

func (s *scriptedSink) Write(context.Context, *parser.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func fastConfig() Config {
	return Config{
		Retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 10, ResetTimeout: time.Second},
	}
}

func TestFanoutRetriesTransientFailures(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	ok := &scriptedSink{name: "ok"}
	flaky := &scriptedSink{name: "flaky", errs: []error{errors.New("conn reset"), errors.New("conn reset")}}
	f := NewFanout(fastConfig(), m, ok, flaky)

	require.NoError(t, f.OnDocument(context.Background(), parsed(t, "a.txt", "x")))
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWritesTotal.WithLabelValues("flaky", "ok")))
}

func TestFanoutJoinsFailures(t *testing.T) {
	bad := fmt.Errorf("%w: bad row", apperrors.ErrInvalidInput)
	permanent := &scriptedSink{name: "permanent", errs: []error{bad}}
	down := &scriptedSink{name: "down", errs: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	ok := &scriptedSink{name: "ok"}
	f := NewFanout(fastConfig(), nil, permanent, down, ok)

	err := f.OnDocument(context.Background(), parsed(t, "a.txt", "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorContains(t, err, "sink down")
	assert.Equal(t, 1, permanent.calls)
	assert.Equal(t, 3, down.calls)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, resilience.StateClosed, f.Breakers()["permanent"].GetState())
}

func TestFanoutBreakerOpens(t *testing.T) {
	cfg := fastConfig()
	cfg.Retry.MaxAttempts = 1
	cfg.Breaker.FailureThreshold = 1
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	down := &scriptedSink{name: "down", errs: []error{errors.New("x")}}
	f := NewFanout(cfg, m, down)

	assert.Error(t, f.OnDocument(context.Background(), parsed(t, "a.txt", "x")))
	err := f.OnDocument(context.Background(), parsed(t, "b.txt", "y"))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, down.calls)
	assert.Equal(t, float64(resilience.StateOpen), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("down")))
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(fmt.Errorf("wrap: %w", apperrors.ErrConfigMismatch)))
	assert.False(t, Permanent(errors.New("timeout")))
	assert.False(t, Permanent(nil))
}

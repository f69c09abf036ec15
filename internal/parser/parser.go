// Package parser turns markup and plain-text documents into per-field text
// buffers and a position-stamped token stream. A Parser picks the markup
// event source for each document and drives a State with its events.
package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/metrics"
)

// Parser is safe for concurrent use. Every document gets its own State;
// the field table is only read.
type Parser struct {
	table       *fields.Table
	analyzer    tokenizer.Analyzer
	opts        Options
	detector    *Detector
	diag        Diagnostics
	handler     Handler
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxFileSize int64
	workers     int
}

// Option customises a Parser.
type Option func(*Parser)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Parser) { p.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// BatchStats counts outcomes of ParseStream and ParseBatch.
type BatchStats struct {
	Parsed int
	Failed int
}

// New builds a Parser. handler may be nil when callers only use the
// returned Results; in ParseBatch it is called from several goroutines.
func New(cfg *config.Config, table *fields.Table, handler Handler, opts ...Option) *Parser {
	p := &Parser{
		table:       table,
		analyzer:    tokenizer.NewAnalyzer(cfg.Analyzer),
		opts:        NewOptions(cfg.Parser),
		detector:    NewDetector(cfg.Parser),
		handler:     handler,
		maxFileSize: cfg.Parser.MaxFileSize,
		workers:     cfg.Parser.Workers,
		logger:      slog.Default().With("component", "parser"),
	}
	for _, o := range opts {
		o(p)
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	p.diag = NewDiagnostics(p.logger, cfg.Parser)
	return p
}

// Detector exposes the MIME and parser lookup tables.
func (p *Parser) Detector() *Detector { return p.detector }

// ParseBuffer parses body as the document described by doc. A zero or
// unset doc.Size is taken from len(body). Malformed markup is not an error:
// the Result is marked Malformed and holds what was read before the fault.
func (p *Parser) ParseBuffer(ctx context.Context, doc *DocInfo, body []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: nil docinfo", apperrors.ErrInvalidInput)
	}
	if doc.Size <= 0 {
		doc.Size = int64(len(body))
	}
	if p.maxFileSize > 0 && doc.Size > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", apperrors.ErrResourceExhausted, doc.URI, doc.Size, p.maxFileSize)
	}

	diag := &docDiagnostics{Diagnostics: p.diag, log: p.logger.With("uri", doc.URI)}
	if err := p.detector.Check(doc, diag.warn); err != nil {
		p.metrics.ObserveParse(doc.Parser, "failed", 0, 0, diag.warnings)
		return nil, err
	}
	mode, err := ModeFor(doc.Parser)
	if err != nil {
		return nil, err
	}
	diag.log = logger.ForDocument(p.logger, doc.URI, doc.Parser)

	start := time.Now()
	st := newState(p.table, p.analyzer, p.opts, mode, doc, diag)
	st.StartDocument()

	feedErr := p.feed(mode, doc, body, st)
	malformed := false
	if feedErr != nil {
		if !errors.Is(feedErr, apperrors.ErrMalformedInput) {
			st.fail(feedErr)
			st.EndDocument()
			p.metrics.ObserveParse(doc.Parser, "failed", time.Since(start), 0, diag.warnings)
			return nil, feedErr
		}
		malformed = true
		diag.reportError("markup is not well formed, keeping text read so far", "error", feedErr)
	}
	if err := st.EndDocument(); err != nil {
		p.metrics.ObserveParse(doc.Parser, "failed", time.Since(start), 0, diag.warnings)
		return nil, err
	}

	res := st.Result()
	res.Malformed = malformed
	status := "ok"
	if malformed {
		status = "malformed"
	}
	p.metrics.ObserveParse(doc.Parser, status, time.Since(start), res.Tokens.Len(), res.Warnings)
	diag.log.Debug("document parsed",
		"nwords", doc.NWords,
		"tokens", res.Tokens.Len(),
		"malformed", malformed,
		"duration", time.Since(start),
	)

	if p.handler != nil {
		if err := p.handler.OnDocument(ctx, res); err != nil {
			return res, fmt.Errorf("handling %s: %w", doc.URI, err)
		}
	}
	return res, nil
}

func (p *Parser) feed(mode Mode, doc *DocInfo, body []byte, st *State) error {
	switch mode {
	case ModeXML:
		return feedXML(bytes.NewReader(body), p.opts.StrictXML, st)
	case ModeText:
		text, enc, guessed, err := decodeText(body, doc.Encoding)
		if err != nil {
			return fmt.Errorf("%w: decoding %s: %v", apperrors.ErrMalformedInput, doc.Encoding, err)
		}
		if guessed {
			st.diag.warn("text is not valid UTF-8, assuming ISO-8859-1")
		}
		doc.Encoding = enc
		return st.Characters(text)
	default:
		declared := doc.Encoding
		if isUTF8Label(declared) {
			declared = ""
		}
		r, enc, err := decodeReader(bytes.NewReader(body), declared, doc.MIME)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
		}
		doc.Encoding = enc
		return feedHTML(r, st)
	}
}

// ParseFile reads and parses one file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Result, error) {
	doc, err := DocInfoFromFile(path)
	if err != nil {
		return nil, err
	}
	if p.maxFileSize > 0 && doc.Size > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", apperrors.ErrResourceExhausted, path, doc.Size, p.maxFileSize)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.ParseBuffer(ctx, doc, body)
}

// ParseStream reads header-framed documents from r until EOF. Each
// document is a header block, a blank line and exactly Content-Length
// bytes of body. A failed document is logged and skipped; a broken frame
// ends the stream.
func (p *Parser) ParseStream(ctx context.Context, r io.Reader) (BatchStats, error) {
	var stats BatchStats
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		doc, err := ReadHeaders(br, func(msg string, args ...any) {
			if p.diag.ReportWarnings {
				p.logger.Warn(msg, args...)
			}
		})
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if doc.Size < 0 {
			return stats, fmt.Errorf("%w: missing Content-Length for %s", apperrors.ErrInvalidHeader, doc.URI)
		}
		if p.maxFileSize > 0 && doc.Size > p.maxFileSize {
			if _, err := io.CopyN(io.Discard, br, doc.Size); err != nil {
				return stats, fmt.Errorf("%w: short body for %s", apperrors.ErrMalformedInput, doc.URI)
			}
			p.logger.Error("skipping document over size limit", "uri", doc.URI, "size", doc.Size, "limit", p.maxFileSize)
			stats.Failed++
			continue
		}
		body := make([]byte, doc.Size)
		if _, err := io.ReadFull(br, body); err != nil {
			return stats, fmt.Errorf("%w: short body for %s: %v", apperrors.ErrMalformedInput, doc.URI, err)
		}
		if _, err := p.ParseBuffer(ctx, doc, body); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			p.logger.Error("document failed", "uri", doc.URI, "error", err)
			stats.Failed++
			continue
		}
		stats.Parsed++
	}
}

// ParseBatch parses files concurrently on the configured number of
// workers. Per-file failures are logged and counted; only cancellation
// stops the batch.
func (p *Parser) ParseBatch(ctx context.Context, paths []string) (BatchStats, error) {
	var parsed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := p.ParseFile(gctx, path); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Error("document failed", "path", path, "error", err)
				failed.Add(1)
				return nil
			}
			parsed.Add(1)
			return nil
		})
	}

	err := g.Wait()
	stats := BatchStats{Parsed: int(parsed.Load()), Failed: int(failed.Load())}
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

package sink

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher announces parsed documents on the parsed-documents topic,
// keyed by URI so updates to one document stay ordered.
type Publisher struct {
	producer   EventPublisher
	withTokens bool
	logger     *slog.Logger
}

// NewPublisher creates a Publisher. withTokens includes the token list in
// each event.
func NewPublisher(producer EventPublisher, withTokens bool) *Publisher {
	return &Publisher{
		producer:   producer,
		withTokens: withTokens,
		logger:     slog.Default().With("component", "parsed-publisher"),
	}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Write(ctx context.Context, res *parser.Result) error {
	d := res.DocInfo
	event := kafka.Event{
		Key:   d.URI,
		Value: res.Document(p.withTokens),
		Headers: map[string]string{
			"Parser-Type": d.Parser,
			"Encoding":    d.Encoding,
		},
	}
	if d.Update != "" {
		event.Headers["Update-Mode"] = d.Update
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		return err
	}
	p.logger.Debug("parsed document published", "uri", d.URI, "nwords", d.NWords)
	return nil
}

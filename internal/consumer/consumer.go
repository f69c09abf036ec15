// Package consumer reads raw-document events from Kafka and drives them
// through the parser. The parser's Handler delivers each result to the
// sinks.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
)

// Parser parses one in-memory document.
type Parser interface {
	ParseBuffer(ctx context.Context, doc *parser.DocInfo, body []byte) (*parser.Result, error)
}

// HandleMessage returns a Kafka MessageHandler that parses every
// RawDocument event. Documents that cannot be parsed are skipped and
// committed. Sink failures are returned unwrapped and leave the message
// uncommitted.
func HandleMessage(p Parser) kafka.MessageHandler {
	logger := slog.Default().With("component", "document-consumer")
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := kafka.DecodeJSON[ingestion.RawDocument](msg.Value)
		if err != nil {
			logger.Error("failed to decode raw document",
				"error", err,
				"key", string(msg.Key),
				"offset", msg.Offset,
			)
			return err
		}
		if event.URI == "" {
			event.URI = string(msg.Key)
		}
		if event.ContentType == "" {
			event.ContentType = msg.Headers["Content-Type"]
		}

		doc := event.DocInfo()
		res, err := p.ParseBuffer(ctx, doc, event.Body)
		switch {
		case err == nil:
		case res != nil:
			// Parsed, but a sink rejected it.
			return fmt.Errorf("delivering %s: %w", doc.URI, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case apperrors.IsFatal(err):
			logger.Warn("skipping document",
				"uri", doc.URI,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			return fmt.Errorf("%w: %s: %w", kafka.ErrSkip, doc.URI, err)
		default:
			return err
		}

		logger.Info("document parsed",
			"uri", doc.URI,
			"parser", doc.Parser,
			"nwords", doc.NWords,
			"malformed", res.Malformed,
		)
		return nil
	}
}

package parser

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
)

// Diagnostics decides which parse-time findings reach the log. Counts are
// kept per document on the Result whether or not they are logged.
type Diagnostics struct {
	Logger         *slog.Logger
	ReportWarnings bool
	ReportErrors   bool
}

func NewDiagnostics(logger *slog.Logger, cfg config.ParserConfig) Diagnostics {
	if logger == nil {
		logger = slog.Default().With("component", "parser")
	}
	return Diagnostics{
		Logger:         logger,
		ReportWarnings: cfg.ReportWarnings,
		ReportErrors:   cfg.ReportErrors,
	}
}

func (d Diagnostics) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// docDiagnostics is the per-document view handed to a State.
type docDiagnostics struct {
	Diagnostics
	log      *slog.Logger
	warnings int
	errors   int
}

func (d *docDiagnostics) warn(msg string, args ...any) {
	d.warnings++
	if d.ReportWarnings {
		d.log.Warn(msg, args...)
	}
}

func (d *docDiagnostics) reportError(msg string, args ...any) {
	d.errors++
	if d.ReportErrors {
		d.log.Error(msg, args...)
	}
}

package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/postgres"
)

// Schema creates the tables DocumentStore writes.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		uri        TEXT PRIMARY KEY,
		size       BIGINT NOT NULL,
		mtime      TIMESTAMPTZ,
		mime       TEXT NOT NULL,
		encoding   TEXT NOT NULL,
		ext        TEXT NOT NULL,
		parser     TEXT NOT NULL,
		nwords     INTEGER NOT NULL,
		warnings   INTEGER NOT NULL DEFAULT 0,
		malformed  BOOLEAN NOT NULL DEFAULT FALSE,
		parsed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS document_metanames (
		uri     TEXT NOT NULL REFERENCES documents(uri) ON DELETE CASCADE,
		name    TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (uri, name)
	)`,
}

const upsertDocument = `INSERT INTO documents (uri, size, mtime, mime, encoding, ext, parser, nwords, warnings, malformed, parsed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	ON CONFLICT (uri) DO UPDATE SET
		size = EXCLUDED.size,
		mtime = EXCLUDED.mtime,
		mime = EXCLUDED.mime,
		encoding = EXCLUDED.encoding,
		ext = EXCLUDED.ext,
		parser = EXCLUDED.parser,
		nwords = EXCLUDED.nwords,
		warnings = EXCLUDED.warnings,
		malformed = EXCLUDED.malformed,
		parsed_at = NOW()`

// DocumentStore keeps one row per document plus the text of each
// non-empty MetaName.
type DocumentStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewDocumentStore(db *postgres.Client) *DocumentStore {
	return &DocumentStore{
		db:     db,
		logger: slog.Default().With("component", "document-store"),
	}
}

func (s *DocumentStore) Name() string { return "postgres" }

// Migrate creates the schema if it is missing.
func (s *DocumentStore) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema...)
}

func (s *DocumentStore) Write(ctx context.Context, res *parser.Result) error {
	if isRemoval(res.DocInfo) {
		return s.Delete(ctx, res.DocInfo.URI)
	}
	rows := metaNameRows(res)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertDocument, documentArgs(res)...); err != nil {
			return fmt.Errorf("upserting document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_metanames WHERE uri = $1`, res.DocInfo.URI); err != nil {
			return fmt.Errorf("clearing metanames: %w", err)
		}
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO document_metanames (uri, name, content) VALUES ($1, $2, $3)`,
				res.DocInfo.URI, row.name, row.content); err != nil {
				return fmt.Errorf("inserting metaname %s: %w", row.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing %s: %w", res.DocInfo.URI, err)
	}
	s.logger.Debug("document stored", "uri", res.DocInfo.URI, "metanames", len(rows))
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, uri string) error {
	if _, err := s.db.DB.ExecContext(ctx, `DELETE FROM documents WHERE uri = $1`, uri); err != nil {
		return fmt.Errorf("deleting %s: %w", uri, err)
	}
	s.logger.Info("document removed", "uri", uri)
	return nil
}

// Get returns the stored DocInfo for uri.
func (s *DocumentStore) Get(ctx context.Context, uri string) (*parser.DocInfo, error) {
	var (
		d     parser.DocInfo
		mtime sql.NullTime
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT uri, size, mtime, mime, encoding, ext, parser, nwords FROM documents WHERE uri = $1`, uri).
		Scan(&d.URI, &d.Size, &mtime, &d.MIME, &d.Encoding, &d.Ext, &d.Parser, &d.NWords)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "document %s", uri)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document %s: %w", uri, err)
	}
	if mtime.Valid {
		d.Mtime = mtime.Time.UTC()
	}
	return &d, nil
}

func documentArgs(res *parser.Result) []any {
	d := res.DocInfo
	var mtime sql.NullTime
	if !d.Mtime.IsZero() {
		mtime = sql.NullTime{Time: d.Mtime.UTC().Truncate(time.Second), Valid: true}
	}
	return []any{d.URI, d.Size, mtime, d.MIME, d.Encoding, d.Ext, d.Parser, d.NWords, res.Warnings, res.Malformed}
}

type metaNameRow struct {
	name    string
	content string
}

// metaNameRows lists non-empty MetaNames in name order.
func metaNameRows(res *parser.Result) []metaNameRow {
	names := res.MetaNames.Names()
	rows := make([]metaNameRow, 0, len(names))
	for _, name := range names {
		if text := res.MetaNames.Get(name); len(text) > 0 {
			rows = append(rows, metaNameRow{name: name, content: string(text)})
		}
	}
	return rows
}

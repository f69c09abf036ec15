// Package ingestion defines the request/response types of the parse API
// and the Kafka event schema for raw documents awaiting parsing.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
)

// RawDocument is the payload on the raw-documents topic. Body travels
// base64-encoded in JSON.
type RawDocument struct {
	URI         string    `json:"uri"`
	ContentType string    `json:"content_type,omitempty"`
	Encoding    string    `json:"encoding,omitempty"`
	ParserType  string    `json:"parser_type,omitempty"`
	Mtime       time.Time `json:"mtime,omitzero"`
	Update      string    `json:"update,omitempty"`
	Body        []byte    `json:"body"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// DocInfo builds the parser's view of d. Detection fills the rest.
func (d *RawDocument) DocInfo() *parser.DocInfo {
	info := parser.NewDocInfo(d.URI)
	info.Size = int64(len(d.Body))
	info.Mtime = d.Mtime
	info.MIME = d.ContentType
	info.Parser = d.ParserType
	info.Update = d.Update
	if d.Encoding != "" {
		info.Encoding = d.Encoding
	}
	return info
}

// ParseRequest is the JSON body accepted by POST /api/v1/parse and
// POST /api/v1/documents.
type ParseRequest struct {
	URI         string    `json:"uri"`
	ContentType string    `json:"content_type"`
	Encoding    string    `json:"encoding"`
	ParserType  string    `json:"parser_type"`
	Mtime       time.Time `json:"mtime"`
	Update      string    `json:"update"`
	Body        string    `json:"body"`
	// Tokens asks for the token list in the response.
	Tokens bool `json:"tokens"`
}

// Raw converts r to the queued form.
func (r *ParseRequest) Raw() RawDocument {
	return RawDocument{
		URI:         r.URI,
		ContentType: r.ContentType,
		Encoding:    r.Encoding,
		ParserType:  r.ParserType,
		Mtime:       r.Mtime,
		Update:      r.Update,
		Body:        []byte(r.Body),
		SubmittedAt: time.Now().UTC(),
	}
}

// ParseResponse is returned by the synchronous parse endpoint.
type ParseResponse struct {
	RequestID string `json:"request_id,omitempty"`
	parser.ParsedDocument
}

// SubmitResponse is returned after a document is queued for the indexer.
type SubmitResponse struct {
	URI    string `json:"uri"`
	Status string `json:"status"`
	Topic  string `json:"topic"`
}

// StoredDocument is what GET /api/v1/documents/{uri} returns.
type StoredDocument struct {
	DocInfo    parser.DocInfo    `json:"docinfo"`
	Properties map[string]string `json:"properties,omitempty"`
}

package parser

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/namedbuffer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenstore"
)

// Result is everything collected for one document.
type Result struct {
	DocInfo    *DocInfo
	MetaNames  *namedbuffer.Set
	Properties *namedbuffer.Set
	Tokens     *tokenstore.Store
	Warnings   int
	Errors     int
	// Malformed is set when the markup source stopped early. The buffers
	// hold what was accumulated up to that point.
	Malformed bool
}

// MetaName returns the text collected for a MetaName.
func (r *Result) MetaName(name string) string {
	return string(r.MetaNames.Get(name))
}

// Property returns the stored value of a Property.
func (r *Result) Property(name string) string {
	return string(r.Properties.Get(name))
}

// Handler consumes finished documents.
type Handler interface {
	OnDocument(ctx context.Context, res *Result) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, res *Result) error

func (f HandlerFunc) OnDocument(ctx context.Context, res *Result) error {
	return f(ctx, res)
}

// ParsedDocument is the serialisable form of a Result, published to Kafka
// and returned by the parse API.
type ParsedDocument struct {
	DocInfo    DocInfo           `json:"docinfo"`
	MetaNames  map[string]string `json:"metanames"`
	Properties map[string]string `json:"properties"`
	Tokens     []TokenView       `json:"tokens,omitempty"`
	Warnings   int               `json:"warnings"`
	Malformed  bool              `json:"malformed,omitempty"`
}

// TokenView is one token in a ParsedDocument.
type TokenView struct {
	Text     string `json:"text"`
	Position int    `json:"pos"`
	MetaID   int    `json:"meta_id"`
	Meta     string `json:"meta"`
	Context  string `json:"context"`
}

// Document converts r. Tokens are included only when withTokens is set.
func (r *Result) Document(withTokens bool) ParsedDocument {
	doc := ParsedDocument{
		DocInfo:    *r.DocInfo,
		MetaNames:  r.MetaNames.Strings(),
		Properties: r.Properties.Strings(),
		Warnings:   r.Warnings,
		Malformed:  r.Malformed,
	}
	if withTokens {
		doc.Tokens = make([]TokenView, 0, r.Tokens.Len())
		for t := range r.Tokens.All() {
			v := TokenView{Text: string(t.Text), Position: t.Position, Context: *t.Context}
			if t.Meta != nil {
				v.MetaID = t.Meta.ID
				v.Meta = t.Meta.Name
			}
			doc.Tokens = append(doc.Tokens, v)
		}
	}
	return doc
}

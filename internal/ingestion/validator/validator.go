// Package validator checks parse requests before they reach the parser and
// returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
)

const maxURILength = 2048

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidateParseRequest checks the URI, the body size against maxBody and
// the parser type when one is given.
func ValidateParseRequest(req *ingestion.ParseRequest, maxBody int64) error {
	errs := make(map[string]string)

	uri := strings.TrimSpace(req.URI)
	switch {
	case uri == "":
		errs["uri"] = "uri is required"
	case len(uri) > maxURILength:
		errs["uri"] = fmt.Sprintf("uri must be at most %d characters", maxURILength)
	case strings.ContainsAny(uri, "\r\n"):
		errs["uri"] = "uri must be a single line"
	}
	if len(req.Body) == 0 {
		errs["body"] = "body is required and must not be empty"
	} else if maxBody > 0 && int64(len(req.Body)) > maxBody {
		errs["body"] = fmt.Sprintf("body must be at most %d bytes", maxBody)
	}
	if req.ParserType != "" {
		switch strings.ToUpper(req.ParserType) {
		case parser.TypeHTML, parser.TypeXML, parser.TypeTXT:
		default:
			errs["parser_type"] = "parser_type must be one of HTML, XML, TXT"
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

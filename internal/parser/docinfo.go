package parser

import (
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

const (
	TypeHTML = "HTML"
	TypeXML  = "XML"
	TypeTXT  = "TXT"

	DefaultEncoding = "UTF-8"
	DefaultMIME     = "text/plain"
	noExtension     = "none"
)

// DocInfo describes one document. Everything except NWords is filled in
// before parsing starts.
type DocInfo struct {
	URI      string    `json:"uri"`
	Size     int64     `json:"size"`
	Mtime    time.Time `json:"mtime"`
	MIME     string    `json:"mime"`
	Encoding string    `json:"encoding"`
	Ext      string    `json:"ext"`
	Parser   string    `json:"parser"`
	Update   string    `json:"update,omitempty"`
	NWords   int       `json:"nwords"`
}

// NewDocInfo returns a DocInfo with the default encoding.
func NewDocInfo(uri string) *DocInfo {
	return &DocInfo{URI: uri, Encoding: DefaultEncoding}
}

// DocInfoFromFile stats path and fills URI, size and mtime.
func DocInfoFromFile(path string) (*DocInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperrors.ErrInvalidInput, path)
	}
	d := NewDocInfo(path)
	d.Size = fi.Size()
	d.Mtime = fi.ModTime().UTC().Truncate(time.Second)
	return d, nil
}

// Detector derives MIME types from extensions and parser types from MIME
// types.
type Detector struct {
	mimes         map[string]string
	parsers       map[string]string
	defaultParser string
}

var defaultMIMEs = map[string]string{
	"htm":   "text/html",
	"html":  "text/html",
	"shtml": "text/html",
	"xhtml": "application/xhtml+xml",
	"xml":   "application/xml",
	"xsl":   "application/xml",
	"rss":   "application/rss+xml",
	"atom":  "application/atom+xml",
	"svg":   "image/svg+xml",
	"txt":   "text/plain",
	"text":  "text/plain",
	"asc":   "text/plain",
	"log":   "text/plain",
	"csv":   "text/csv",
	"md":    "text/markdown",
	"css":   "text/css",
	"js":    "application/javascript",
	"json":  "application/json",
	"pdf":   "application/pdf",
	"doc":   "application/msword",
}

var defaultParsers = map[string]string{
	"text/plain":            TypeTXT,
	"text/csv":              TypeTXT,
	"text/markdown":         TypeTXT,
	"text/html":             TypeHTML,
	"application/xml":       TypeXML,
	"text/xml":              TypeXML,
	"application/xhtml+xml": TypeXML,
	"application/rss+xml":   TypeXML,
	"application/atom+xml":  TypeXML,
	"image/svg+xml":         TypeXML,
}

// NewDetector merges configured tables over the built-in ones.
func NewDetector(cfg config.ParserConfig) *Detector {
	d := &Detector{
		mimes:         make(map[string]string, len(defaultMIMEs)+len(cfg.MIME)),
		parsers:       make(map[string]string, len(defaultParsers)+len(cfg.Parsers)),
		defaultParser: strings.ToUpper(cfg.DefaultParser),
	}
	if d.defaultParser == "" {
		d.defaultParser = TypeHTML
	}
	for k, v := range defaultMIMEs {
		d.mimes[k] = v
	}
	for k, v := range cfg.MIME {
		d.mimes[strings.ToLower(strings.TrimPrefix(k, "."))] = strings.ToLower(v)
	}
	for k, v := range defaultParsers {
		d.parsers[k] = v
	}
	for k, v := range cfg.Parsers {
		d.parsers[strings.ToLower(k)] = strings.ToUpper(v)
	}
	return d
}

// MIMEFor returns the MIME type for a file extension.
func (d *Detector) MIMEFor(ext string) string {
	ext = strings.ToLower(ext)
	if m, ok := d.mimes[ext]; ok {
		return m
	}
	if ext != "" && ext != noExtension {
		if m := mime.TypeByExtension("." + ext); m != "" {
			if base, _, err := mime.ParseMediaType(m); err == nil {
				return base
			}
		}
	}
	return DefaultMIME
}

// ParserFor returns the parser type for a MIME type and whether the lookup
// hit a known entry. Unknown types get the default parser.
func (d *Detector) ParserFor(mimeType string) (string, bool) {
	if p, ok := d.parsers[strings.ToLower(mimeType)]; ok {
		return p, true
	}
	return d.defaultParser, false
}

// Check validates d and fills the derived fields: extension from the URI,
// MIME type from the extension, parser from the MIME type. warn receives
// non-fatal findings.
func (det *Detector) Check(d *DocInfo, warn func(msg string, args ...any)) error {
	if d.URI == "" {
		return fmt.Errorf("%w: missing required Content-Location", apperrors.ErrInvalidHeader)
	}
	if d.Size < 0 {
		return fmt.Errorf("%w: missing required Content-Length for %s", apperrors.ErrInvalidHeader, d.URI)
	}
	if d.Size == 0 {
		return fmt.Errorf("%w: zero Content-Length for %s", apperrors.ErrEmptyDocument, d.URI)
	}
	if d.Encoding == "" {
		d.Encoding = DefaultEncoding
	}
	if d.Ext == "" {
		d.Ext = FileExt(d.URI)
	}
	if d.MIME == "" {
		d.MIME = det.MIMEFor(d.Ext)
	} else if base, params, err := mime.ParseMediaType(d.MIME); err == nil {
		d.MIME = base
		if cs := params["charset"]; cs != "" && strings.EqualFold(d.Encoding, DefaultEncoding) {
			d.Encoding = strings.ToUpper(cs)
		}
	}
	if d.Parser == "" {
		p, known := det.ParserFor(d.MIME)
		if !known && warn != nil {
			warn("no parser for MIME type, using default", "mime", d.MIME, "parser", p)
		}
		d.Parser = p
	}
	d.Parser = strings.ToUpper(d.Parser)
	switch d.Parser {
	case TypeHTML, TypeXML, TypeTXT:
	default:
		return fmt.Errorf("%w: %q for %s", apperrors.ErrUnknownParser, d.Parser, d.URI)
	}
	return nil
}

// FileExt returns the lowercased extension of uri without the dot, or
// "none".
func FileExt(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	ext := path.Ext(uri)
	if ext == "" || ext == "." || strings.ContainsRune(ext, '/') {
		return noExtension
	}
	return strings.ToLower(ext[1:])
}

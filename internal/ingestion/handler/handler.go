// Package handler serves the parse API: synchronous parsing, queueing raw
// documents for the indexer and reading back stored documents.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/logger"
)

const documentsPath = "/api/v1/documents/"

// Parser parses one in-memory document.
type Parser interface {
	ParseBuffer(ctx context.Context, doc *parser.DocInfo, body []byte) (*parser.Result, error)
}

// Publisher queues events on the raw-documents topic.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// DocumentReader looks up stored DocInfo rows.
type DocumentReader interface {
	Get(ctx context.Context, uri string) (*parser.DocInfo, error)
}

// PropertyReader looks up stored properties.
type PropertyReader interface {
	Get(ctx context.Context, uri string) (map[string]string, error)
}

type Handler struct {
	parser    Parser
	publisher Publisher
	topic     string
	documents DocumentReader
	props     PropertyReader
	maxBody   int64
	group     singleflight.Group
	logger    *slog.Logger
}

type Option func(*Handler)

// WithPublisher enables POST /api/v1/documents.
func WithPublisher(p Publisher, topic string) Option {
	return func(h *Handler) {
		h.publisher = p
		h.topic = topic
	}
}

// WithStores enables GET /api/v1/documents/{uri}. props may be nil.
func WithStores(docs DocumentReader, props PropertyReader) Option {
	return func(h *Handler) {
		h.documents = docs
		h.props = props
	}
}

func New(p Parser, maxBody int64, opts ...Option) *Handler {
	h := &Handler{
		parser:  p,
		maxBody: maxBody,
		logger:  slog.Default().With("component", "parse-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/parse", h.Parse)
	mux.HandleFunc("POST /api/v1/documents", h.Submit)
	mux.HandleFunc("GET "+documentsPath+"{uri...}", h.Document)
}

// Parse runs the parser on the request body and answers with the result.
// Identical concurrent requests share one parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	// The parse is shared with coalesced callers, so it must outlive the
	// leader's connection.
	parseCtx := context.WithoutCancel(ctx)
	v, err, coalesced := h.group.Do(flightKey(req), func() (any, error) {
		res, err := h.parser.ParseBuffer(parseCtx, requestDocInfo(req), []byte(req.Body))
		if err != nil {
			return nil, err
		}
		return res.Document(req.Tokens), nil
	})
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Warn("parse failed", "uri", req.URI, "error", err, "status_code", status)
		h.writeError(w, status, err.Error())
		return
	}
	doc := v.(parser.ParsedDocument)
	log.Info("document parsed",
		"uri", doc.DocInfo.URI,
		"parser", doc.DocInfo.Parser,
		"nwords", doc.DocInfo.NWords,
		"shared", coalesced,
	)
	requestID, _ := logger.RequestID(r.Context())
	h.writeJSON(w, http.StatusOK, ingestion.ParseResponse{
		RequestID:      requestID,
		ParsedDocument: doc,
	})
}

// Submit queues the document for the indexer.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		h.writeError(w, http.StatusNotImplemented, "document queue not configured")
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	raw := req.Raw()
	event := kafka.Event{
		Key:     raw.URI,
		Value:   raw,
		Headers: map[string]string{"Content-Type": raw.ContentType},
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		logger.FromContext(r.Context()).Error("queueing document failed", "uri", raw.URI, "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "document queue unavailable")
		return
	}
	h.writeJSON(w, http.StatusAccepted, ingestion.SubmitResponse{
		URI:    raw.URI,
		Status: "QUEUED",
		Topic:  h.topic,
	})
}

// Document returns the stored DocInfo and properties for a URI.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	if h.documents == nil {
		h.writeError(w, http.StatusNotImplemented, "document store not configured")
		return
	}
	uri := r.PathValue("uri")
	if uri == "" {
		h.writeError(w, http.StatusBadRequest, "uri is required")
		return
	}
	info, err := h.documents.Get(r.Context(), uri)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	out := ingestion.StoredDocument{DocInfo: *info}
	if h.props != nil {
		props, err := h.props.Get(r.Context(), uri)
		if err != nil {
			logger.FromContext(r.Context()).Warn("property lookup failed", "uri", uri, "error", err)
		}
		out.Properties = props
	}
	h.writeJSON(w, http.StatusOK, out)
}

// decode reads a ParseRequest either from a JSON body or from a raw body
// described by query parameters, then validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*ingestion.ParseRequest, bool) {
	body := io.Reader(r.Body)
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody*2)
	}

	var req ingestion.ParseRequest
	if isJSON(r.Header.Get("Content-Type")) {
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			h.writeError(w, decodeStatus(err), "invalid JSON body")
			return nil, false
		}
	} else {
		data, err := io.ReadAll(body)
		if err != nil {
			h.writeError(w, decodeStatus(err), "reading body failed")
			return nil, false
		}
		q := r.URL.Query()
		req = ingestion.ParseRequest{
			URI:         q.Get("uri"),
			ContentType: r.Header.Get("Content-Type"),
			Encoding:    q.Get("encoding"),
			ParserType:  q.Get("parser"),
			Update:      q.Get("update"),
			Body:        string(data),
		}
		req.Tokens, _ = strconv.ParseBool(q.Get("tokens"))
		if ts := q.Get("mtime"); ts != "" {
			sec, err := strconv.ParseInt(ts, 10, 64)
			if err != nil {
				h.writeError(w, http.StatusBadRequest, "mtime must be unix seconds")
				return nil, false
			}
			req.Mtime = time.Unix(sec, 0).UTC()
		}
	}

	if err := validator.ValidateParseRequest(&req, h.maxBody); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return nil, false
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func requestDocInfo(req *ingestion.ParseRequest) *parser.DocInfo {
	raw := req.Raw()
	return raw.DocInfo()
}

// flightKey identifies requests that would produce the same result. Each
// field is length-prefixed so no two distinct requests share an encoding.
func flightKey(req *ingestion.ParseRequest) string {
	h := sha256.New()
	var n [8]byte
	for _, s := range []string{req.URI, req.ContentType, req.Encoding, req.ParserType, req.Update, req.Body} {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		io.WriteString(h, s)
	}
	return fmt.Sprintf("%x:%t:%d", h.Sum(nil), req.Tokens, req.Mtime.Unix())
}

func isJSON(contentType string) bool {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(base), "application/json")
}

func decodeStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

package parser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/namedbuffer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tagstack"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenstore"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/logger"
)

// Mode selects how tag names are normalised.
type Mode int

const (
	ModeHTML Mode = iota
	ModeXML
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeXML:
		return TypeXML
	case ModeText:
		return TypeTXT
	default:
		return TypeHTML
	}
}

// ModeFor maps a parser type to a Mode.
func ModeFor(parserType string) (Mode, error) {
	switch strings.ToUpper(parserType) {
	case TypeHTML:
		return ModeHTML, nil
	case TypeXML:
		return ModeXML, nil
	case TypeTXT:
		return ModeText, nil
	}
	return ModeHTML, fmt.Errorf("%w: %q", apperrors.ErrUnknownParser, parserType)
}

// Attr is one markup attribute, in document order.
type Attr struct {
	Name  string
	Value string
}

// Options are the tag-handling settings shared by every document.
type Options struct {
	// CascadeMetaContext copies flushed MetaName text into every MetaName
	// still open on the stack, the default field included.
	CascadeMetaContext bool
	TagAliases         map[string]string
	XMLClassAttributes []string
	XMLAttributes      []string
	StrictXML          bool
}

var defaultTagAliases = map[string]string{
	"title": fields.TitleMetaName,
	"body":  fields.DescriptionProperty,
}

// NewOptions builds Options from configuration. Configured aliases
// override the built-in title and body aliases.
func NewOptions(cfg config.ParserConfig) Options {
	aliases := make(map[string]string, len(defaultTagAliases)+len(cfg.TagAliases))
	for k, v := range defaultTagAliases {
		aliases[k] = v
	}
	for k, v := range cfg.TagAliases {
		aliases[strings.ToLower(k)] = strings.ToLower(v)
	}
	return Options{
		CascadeMetaContext: cfg.CascadeMetaContext,
		TagAliases:         aliases,
		XMLClassAttributes: lowerAll(cfg.XMLClassAttributes),
		XMLAttributes:      lowerAll(cfg.XMLAttributes),
		StrictXML:          cfg.StrictXML,
	}
}

const propSentinel = "_"

var marker = []byte{tokenizer.Marker}

// Inline HTML elements let text run on across the tag.
var inlineElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.Acronym: true, atom.B: true,
	atom.Bdi: true, atom.Bdo: true, atom.Big: true, atom.Cite: true,
	atom.Code: true, atom.Data: true, atom.Del: true, atom.Dfn: true,
	atom.Em: true, atom.Font: true, atom.I: true, atom.Ins: true,
	atom.Kbd: true, atom.Mark: true, atom.Q: true, atom.S: true,
	atom.Samp: true, atom.Small: true, atom.Span: true, atom.Strike: true,
	atom.Strong: true, atom.Sub: true, atom.Sup: true, atom.Time: true,
	atom.Tt: true, atom.U: true, atom.Var: true, atom.Label: true,
}

type frame struct {
	meta bool
	prop bool
}

// State is the per-document parser. Event sources drive it through
// StartDocument, OpenTag, Characters, CloseTag, Comment and EndDocument.
// After a fatal error every further event returns that error.
type State struct {
	table    *fields.Table
	analyzer tokenizer.Analyzer
	opts     Options
	mode     Mode
	doc      *DocInfo
	diag     *docDiagnostics

	metaStack *tagstack.Stack
	propStack *tagstack.Stack
	metas     *namedbuffer.Set
	props     *namedbuffer.Set
	metaBuf   []byte
	propBuf   []byte
	store     *tokenstore.Store
	frames    []frame

	bump    bool
	noIndex bool
	err     error
}

// NewState prepares a State for doc. Call StartDocument before the first
// event.
func NewState(table *fields.Table, analyzer tokenizer.Analyzer, opts Options, mode Mode, doc *DocInfo, diag Diagnostics) *State {
	if doc == nil {
		doc = NewDocInfo("")
	}
	return newState(table, analyzer, opts, mode, doc, &docDiagnostics{
		Diagnostics: diag,
		log:         logger.ForDocument(diag.logger(), doc.URI, mode.String()),
	})
}

func newState(table *fields.Table, analyzer tokenizer.Analyzer, opts Options, mode Mode, doc *DocInfo, diag *docDiagnostics) *State {
	return &State{
		table:    table,
		analyzer: analyzer,
		opts:     opts,
		mode:     mode,
		doc:      doc,
		diag:     diag,
	}
}

func (s *State) StartDocument() {
	s.metaStack = tagstack.New("metanames", fields.DefaultMetaName)
	s.propStack = tagstack.New("properties", propSentinel)
	s.metas = namedbuffer.New(s.table.MetaNameNames())
	s.props = namedbuffer.New(s.table.PropertyNames())
	s.store = tokenstore.New()
	s.metaBuf = s.metaBuf[:0]
	s.propBuf = s.propBuf[:0]
	s.frames = s.frames[:0]
	s.bump = true
	s.noIndex = false
	s.err = nil
	s.doc.NWords = 0
}

// Err returns the fatal error that stopped the document, if any.
func (s *State) Err() error { return s.err }

func (s *State) OpenTag(name string, attrs []Attr) error {
	if s.err != nil {
		return s.err
	}
	raw := strings.ToLower(name)
	baked, handled := s.bake(raw, attrs)
	if handled {
		return s.err
	}
	var f frame
	if s.table.IsProperty(baked) {
		if err := s.flushProperties(nil); err != nil {
			return s.fail(err)
		}
		s.propBuf = s.propBuf[:0]
		s.propStack.Push(raw, s.table.ResolveProperty(baked))
		f.prop = true
	}
	if s.table.IsMetaName(baked) {
		head := s.metaStack.Head()
		if err := s.flushMeta(head.Baked, head.Context); err != nil {
			return s.fail(err)
		}
		s.metaStack.Push(raw, s.table.ResolveMetaName(baked))
		f.meta = true
	}
	if s.mode == ModeXML {
		s.frames = append(s.frames, f)
		if len(s.opts.XMLAttributes) > 0 {
			return s.attributeFields(raw, attrs)
		}
	}
	return nil
}

func (s *State) Characters(data []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.noIndex || len(data) == 0 {
		return nil
	}
	if s.bump && len(s.metaBuf) > 0 {
		s.metaBuf = append(s.metaBuf, tokenizer.Marker)
	}
	if len(s.propBuf) > 0 {
		switch {
		case s.bump:
			s.propBuf = append(s.propBuf, tokenizer.Marker)
		case !isSpace(s.propBuf[len(s.propBuf)-1]) && !isSpace(data[0]):
			s.propBuf = append(s.propBuf, ' ')
		}
	}
	s.metaBuf = append(s.metaBuf, data...)
	s.propBuf = append(s.propBuf, data...)
	s.bump = false
	return nil
}

func (s *State) CloseTag(name string) error {
	if s.err != nil {
		return s.err
	}
	raw := strings.ToLower(name)
	s.bake(raw, nil)

	f := frame{meta: true, prop: true}
	if s.mode == ModeXML && len(s.frames) > 0 {
		f = s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
	}
	if f.prop {
		if act, ok := s.propStack.PopIfMatches(raw); ok {
			if err := s.flushProperties(&act); err != nil {
				return s.fail(err)
			}
			s.propBuf = s.propBuf[:0]
		}
	}
	if f.meta {
		if act, ok := s.metaStack.PopIfMatches(raw); ok {
			if err := s.flushMeta(act.Baked, act.Context); err != nil {
				return s.fail(err)
			}
		}
	}
	return nil
}

// Comment toggles indexing on the markers "noindex" and "index". Other
// comments are ignored.
func (s *State) Comment(text string) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "noindex":
		s.noIndex = true
	case "index":
		s.noIndex = false
	}
}

// EndDocument commits what is left and tears down the stacks.
func (s *State) EndDocument() error {
	if s.err == nil && s.propStack.Len() > 1 {
		if err := s.flushProperties(nil); err != nil {
			s.fail(err)
		}
	}
	if s.err == nil {
		if err := s.flushMeta(fields.DefaultMetaName, fields.DefaultMetaName); err != nil {
			s.fail(err)
		}
	}
	if s.err == nil {
		for _, p := range s.table.Properties() {
			if p.Max > 0 {
				s.props.Truncate(p.Name, p.Max)
			}
		}
	}
	unclosed := s.metaStack.Drain() + s.propStack.Drain()
	if unclosed > 0 {
		s.diag.log.Debug("document ended with open fields", "open", unclosed)
	}
	return s.err
}

// Result returns the collected buffers and tokens. It is meaningful after
// EndDocument.
func (s *State) Result() *Result {
	return &Result{
		DocInfo:    s.doc,
		MetaNames:  s.metas,
		Properties: s.props,
		Tokens:     s.store,
		Warnings:   s.diag.warnings,
		Errors:     s.diag.errors,
	}
}

// bake normalises a lowercased tag name and updates the word-boundary flag.
// It reports handled when the tag was consumed as an HTML meta field.
func (s *State) bake(tag string, attrs []Attr) (string, bool) {
	switch s.mode {
	case ModeHTML:
		// Inline elements leave a pending boundary from an earlier block
		// tag in place; only Characters consumes it.
		if tag == "br" || tag == "img" {
			s.bump = true
		} else if a := atom.Lookup([]byte(tag)); a != 0 && !inlineElements[a] {
			s.bump = true
		}
		if tag == "meta" && attrs != nil {
			if s.htmlMeta(attrs) {
				return "", true
			}
		}
	case ModeXML:
		s.bump = true
		if len(s.opts.XMLClassAttributes) > 0 && attrs != nil {
			tag = s.classField(tag, attrs)
		}
	}
	if alias, ok := s.opts.TagAliases[tag]; ok {
		tag = alias
	}
	return tag, false
}

// htmlMeta turns <meta name=... content=...> into a field of its own.
func (s *State) htmlMeta(attrs []Attr) bool {
	var name, content string
	var hasName, hasContent bool
	for _, a := range attrs {
		switch strings.ToLower(a.Name) {
		case "name":
			name, hasName = a.Value, true
		case "content":
			content, hasContent = a.Value, true
		}
	}
	if !hasName || !hasContent || strings.TrimSpace(name) == "" {
		return false
	}
	s.bump = true
	if err := s.OpenTag(name, nil); err != nil {
		return true
	}
	if err := s.Characters([]byte(content)); err != nil {
		return true
	}
	s.CloseTag(name)
	return true
}

// classField appends the value of the first configured class attribute to
// tag when the result names a field.
func (s *State) classField(tag string, attrs []Attr) string {
	for _, class := range s.opts.XMLClassAttributes {
		for _, a := range attrs {
			if strings.ToLower(a.Name) != class {
				continue
			}
			candidate := tag + "." + strings.ToLower(strings.TrimSpace(a.Value))
			if s.table.IsMetaName(candidate) || s.table.IsProperty(candidate) {
				return candidate
			}
		}
	}
	return tag
}

// attributeFields indexes configured attribute values as tag.attribute
// fields nested inside the element.
func (s *State) attributeFields(tag string, attrs []Attr) error {
	for _, a := range attrs {
		key := strings.ToLower(a.Name)
		if !contains(s.opts.XMLAttributes, key) {
			continue
		}
		field := tag + "." + key
		if !s.table.IsMetaName(field) && !s.table.IsProperty(field) {
			continue
		}
		if err := s.OpenTag(field, nil); err != nil {
			return err
		}
		if err := s.Characters([]byte(a.Value)); err != nil {
			return err
		}
		if err := s.CloseTag(field); err != nil {
			return err
		}
	}
	return nil
}

// flushMeta commits the MetaName scratch text under name and tokenizes it.
func (s *State) flushMeta(name, context string) error {
	text := s.metaBuf
	defer func() { s.metaBuf = s.metaBuf[:0] }()
	if len(bytes.TrimSpace(text)) == 0 {
		return nil
	}
	if s.store.Position() > 0 {
		s.store.Skip(1)
	}
	if err := s.metas.Append(name, text, marker, false, true); err != nil {
		return err
	}
	if s.opts.CascadeMetaContext {
		var err error
		s.metaStack.Each(func(a tagstack.Activation) bool {
			if a.Baked == name {
				return true
			}
			err = s.metas.Append(a.Baked, text, marker, false, true)
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	if !s.analyzer.Enabled {
		return nil
	}
	meta, ok := s.table.MetaName(name)
	if !ok {
		return fmt.Errorf("%w: no metaname %q", apperrors.ErrConfigMismatch, name)
	}
	n, err := s.analyzer.Tokenize(text, tokenizer.Request{Meta: meta, Context: context, Store: s.store})
	s.doc.NWords += n
	if err != nil {
		return fmt.Errorf("tokenizing %s: %w", name, err)
	}
	return nil
}

// flushProperties commits the Property scratch text to closed (if any) and
// to every Property still open.
func (s *State) flushProperties(closed *tagstack.Activation) error {
	text := s.propBuf
	if len(bytes.TrimSpace(text)) == 0 {
		return nil
	}
	if closed != nil {
		if err := s.appendProperty(closed.Baked, text); err != nil {
			return err
		}
	}
	var err error
	s.propStack.Each(func(a tagstack.Activation) bool {
		if a.Seq == 0 {
			return true
		}
		err = s.appendProperty(a.Baked, text)
		return err == nil
	})
	return err
}

func (s *State) appendProperty(name string, text []byte) error {
	p, ok := s.table.Property(name)
	if !ok {
		return fmt.Errorf("%w: no property %q", apperrors.ErrConfigMismatch, name)
	}
	return s.props.Append(name, text, marker, !p.Verbatim, false)
}

func (s *State) fail(err error) error {
	if s.err == nil {
		s.err = err
		s.diag.log.Error("document aborted", "error", err)
	}
	return s.err
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

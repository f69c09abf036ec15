package parser

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

func newTestState(t *testing.T, mode Mode) *State {
	t.Helper()
	cfg := testConfig()
	table, err := fields.New(cfg.Fields)
	require.NoError(t, err)
	st := NewState(table, tokenizer.NewAnalyzer(cfg.Analyzer), NewOptions(cfg.Parser), mode, NewDocInfo("t.xml"), Diagnostics{})
	st.StartDocument()
	return st
}

func TestStateUnclosedPropertyIsCommitted(t *testing.T) {
	st := newTestState(t, ModeXML)

	require.NoError(t, st.OpenTag("summary", nil))
	require.NoError(t, st.Characters([]byte("abc")))
	require.NoError(t, st.EndDocument())

	assert.Equal(t, "abc", st.Result().Property("summary"))
}

func TestStateNestedProperties(t *testing.T) {
	st := newTestState(t, ModeXML)

	require.NoError(t, st.OpenTag("raw", nil))
	require.NoError(t, st.Characters([]byte("outer")))
	require.NoError(t, st.OpenTag("summary", nil))
	require.NoError(t, st.Characters([]byte("in")))
	require.NoError(t, st.CloseTag("summary"))
	require.NoError(t, st.Characters([]byte("tail")))
	require.NoError(t, st.CloseTag("raw"))
	require.NoError(t, st.EndDocument())

	res := st.Result()
	assert.Equal(t, "in", res.Property("summary"))
	assert.Equal(t, "outer\x03in\x03tail", res.Property("raw"))
}

func TestStatePropertyJoinsTextRuns(t *testing.T) {
	st := newTestState(t, ModeHTML)

	require.NoError(t, st.OpenTag("summary", nil))
	require.NoError(t, st.Characters([]byte("ab")))
	require.NoError(t, st.OpenTag("b", nil))
	require.NoError(t, st.Characters([]byte("cd")))
	require.NoError(t, st.CloseTag("b"))
	require.NoError(t, st.CloseTag("summary"))
	require.NoError(t, st.EndDocument())

	assert.Equal(t, "ab cd", st.Result().Property("summary"))
	assert.Equal(t, "abcd", st.Result().MetaName(fields.DefaultMetaName), "inline tags do not split words")
}

func TestStateBlockTagsSplitWords(t *testing.T) {
	st := newTestState(t, ModeHTML)

	require.NoError(t, st.Characters([]byte("ab")))
	require.NoError(t, st.OpenTag("br", nil))
	require.NoError(t, st.CloseTag("br"))
	require.NoError(t, st.Characters([]byte("cd")))
	require.NoError(t, st.EndDocument())

	res := st.Result()
	assert.Equal(t, "ab\x03cd", res.MetaName(fields.DefaultMetaName))
	require.Equal(t, 2, res.Tokens.Len())
	assert.Equal(t, 1, res.Tokens.At(0).Position)
	assert.Equal(t, 3, res.Tokens.At(1).Position)
}

func TestStateMismatchedCloseIsIgnored(t *testing.T) {
	st := newTestState(t, ModeHTML)

	require.NoError(t, st.OpenTag("kw", nil))
	require.NoError(t, st.Characters([]byte("word")))
	require.NoError(t, st.CloseTag("author"))
	require.NoError(t, st.EndDocument())

	res := st.Result()
	assert.Equal(t, "word", res.MetaName(fields.DefaultMetaName))
	assert.Equal(t, "word", res.MetaName("kw"), "still-open fields receive the final flush")
	assert.Equal(t, "swishdefault", res.Tokens.At(0).Meta.Name)
}

func TestStateStopsAfterFatalError(t *testing.T) {
	st := newTestState(t, ModeXML)

	boom := apperrors.New(apperrors.ErrScanOverrun, 422, "boom")
	st.fail(boom)

	assert.ErrorIs(t, st.OpenTag("kw", nil), apperrors.ErrScanOverrun)
	assert.ErrorIs(t, st.Characters([]byte("x")), apperrors.ErrScanOverrun)
	assert.ErrorIs(t, st.CloseTag("kw"), apperrors.ErrScanOverrun)
	assert.ErrorIs(t, st.EndDocument(), apperrors.ErrScanOverrun)
	assert.Equal(t, boom, st.Err())
}

func TestDiagnosticsReporting(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	quiet := &docDiagnostics{Diagnostics: NewDiagnostics(log, config.ParserConfig{}), log: log}
	quiet.warn("first")
	quiet.reportError("second")
	assert.Equal(t, 1, quiet.warnings)
	assert.Equal(t, 1, quiet.errors)
	assert.Empty(t, buf.String())

	loud := &docDiagnostics{Diagnostics: NewDiagnostics(log, config.ParserConfig{ReportWarnings: true, ReportErrors: true}), log: log}
	loud.warn("third")
	loud.reportError("fourth")
	assert.Contains(t, buf.String(), "third")
	assert.Contains(t, buf.String(), "fourth")
}

func TestModeFor(t *testing.T) {
	m, err := ModeFor("xml")
	require.NoError(t, err)
	assert.Equal(t, ModeXML, m)
	assert.Equal(t, TypeTXT, ModeText.String())

	_, err = ModeFor("pdf")
	assert.ErrorIs(t, err, apperrors.ErrUnknownParser)
}

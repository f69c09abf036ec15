package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFromContextCarriesRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	ctx := WithRequestID(context.Background(), "req-7")
	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-7", id)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-7"`)

	_, ok = RequestID(context.Background())
	assert.False(t, ok)
}

func TestForDocumentScopesFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ForDocument(base, "docs/a.html", "HTML").Info("parsed")
	assert.Contains(t, buf.String(), "uri=docs/a.html")
	assert.Contains(t, buf.String(), "parser=HTML")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Analyzer.MinWordLen)
	assert.Equal(t, 256, cfg.Analyzer.MaxWordLen)
	assert.True(t, cfg.Analyzer.Lowercase)
	assert.True(t, cfg.Analyzer.Tokenize)
	assert.True(t, cfg.Parser.CascadeMetaContext)
	assert.Equal(t, "HTML", cfg.Parser.DefaultParser)
	assert.Equal(t, "documents.raw", cfg.Kafka.Topics.RawDocuments)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swish.yaml")
	data := `
analyzer:
  minWordLen: 2
  maxWordLen: 40
  lowercase: false
parser:
  cascadeMetaContext: false
  tagAliases:
    headline: title
fields:
  metaNames:
    - name: keywords
      id: 7
      bias: 2
      alias: [kw]
  properties:
    - name: price
      type: int
      ignoreCase: false
      sort: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Analyzer.MinWordLen)
	assert.Equal(t, 40, cfg.Analyzer.MaxWordLen)
	assert.False(t, cfg.Analyzer.Lowercase)
	assert.True(t, cfg.Analyzer.Tokenize, "unset keys keep their defaults")
	assert.False(t, cfg.Parser.CascadeMetaContext)
	assert.Equal(t, "title", cfg.Parser.TagAliases["headline"])

	require.Len(t, cfg.Fields.MetaNames, 1)
	assert.Equal(t, 7, cfg.Fields.MetaNames[0].ID)
	assert.Equal(t, []string{"kw"}, cfg.Fields.MetaNames[0].Alias)

	require.Len(t, cfg.Fields.Properties, 1)
	require.NotNil(t, cfg.Fields.Properties[0].IgnoreCase)
	assert.False(t, *cfg.Fields.Properties[0].IgnoreCase)
}

func TestLoadRejectsInvertedWordBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analyzer:\n  minWordLen: 10\n  maxWordLen: 3\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxWordLen")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SWISH_PARSER_WARNING", "2")
	t.Setenv("SWISH_PARSER_ERROR", "0")
	t.Setenv("SWISH_ANALYZER_MAX_WORD_LEN", "64")
	t.Setenv("SWISH_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Parser.ReportWarnings)
	assert.False(t, cfg.Parser.ReportErrors)
	assert.Equal(t, 64, cfg.Analyzer.MaxWordLen)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	m, ok := tbl.MetaName(DefaultMetaName)
	require.True(t, ok)
	assert.Equal(t, 1, m.ID)
	assert.True(t, tbl.IsMetaName(TitleMetaName))
	assert.True(t, tbl.IsProperty(TitleProperty))
	assert.True(t, tbl.IsProperty(DescriptionProperty))
	assert.Equal(t, []string{"swishdefault", "swishtitle"}, tbl.MetaNameNames())
}

func TestNewAssignsIDs(t *testing.T) {
	tbl, err := New(config.FieldsConfig{
		MetaNames: []config.MetaNameConfig{
			{Name: "meta2", ID: 7},
			{Name: "Author"},
		},
		Properties: []config.PropertyConfig{
			{Name: "price", Type: "int"},
		},
	})
	require.NoError(t, err)

	m, ok := tbl.MetaName("meta2")
	require.True(t, ok)
	assert.Equal(t, 7, m.ID)

	a, ok := tbl.MetaName("author")
	require.True(t, ok, "names are lowercased")
	assert.Equal(t, 8, a.ID)

	byID, ok := tbl.MetaNameByID(8)
	require.True(t, ok)
	assert.Same(t, a, byID)

	p, ok := tbl.Property("price")
	require.True(t, ok)
	assert.Equal(t, TypeInt, p.Type)
	assert.True(t, p.IgnoreCase)
	assert.Equal(t, 3, p.ID)
}

func TestNewRejectsInconsistentTables(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.FieldsConfig
	}{
		{
			name: "duplicate metaname",
			cfg: config.FieldsConfig{MetaNames: []config.MetaNameConfig{
				{Name: "kw"}, {Name: "KW"},
			}},
		},
		{
			name: "duplicate metaname id",
			cfg: config.FieldsConfig{MetaNames: []config.MetaNameConfig{
				{Name: "a", ID: 9}, {Name: "b", ID: 9},
			}},
		},
		{
			name: "alias shadows real metaname",
			cfg: config.FieldsConfig{MetaNames: []config.MetaNameConfig{
				{Name: "a"}, {Name: "b", Alias: []string{"a"}},
			}},
		},
		{
			name: "duplicate property",
			cfg: config.FieldsConfig{Properties: []config.PropertyConfig{
				{Name: "p"}, {Name: "p"},
			}},
		},
		{
			name: "unknown property type",
			cfg: config.FieldsConfig{Properties: []config.PropertyConfig{
				{Name: "p", Type: "float"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfigMismatch)
		})
	}
}

func TestAliases(t *testing.T) {
	noCase := false
	tbl, err := New(config.FieldsConfig{
		MetaNames: []config.MetaNameConfig{
			{Name: "keywords", Alias: []string{"kw", "tags"}},
		},
		Properties: []config.PropertyConfig{
			{Name: "author", IgnoreCase: &noCase, Alias: []string{"creator"}},
		},
	})
	require.NoError(t, err)

	kw, ok := tbl.MetaName("kw")
	require.True(t, ok)
	assert.True(t, kw.IsAlias())
	assert.Equal(t, "keywords", tbl.ResolveMetaName("kw"))
	assert.Equal(t, "keywords", tbl.ResolveMetaName("keywords"))
	assert.Equal(t, "nosuch", tbl.ResolveMetaName("nosuch"))
	assert.NotContains(t, tbl.MetaNameNames(), "kw")

	creator, ok := tbl.Property("creator")
	require.True(t, ok)
	assert.False(t, creator.IgnoreCase)
	assert.Equal(t, "author", tbl.ResolveProperty("creator"))
}

func TestOverrideBuiltin(t *testing.T) {
	tbl, err := New(config.FieldsConfig{
		MetaNames: []config.MetaNameConfig{{Name: "swishtitle", ID: 20, Bias: 5}},
	})
	require.NoError(t, err)

	m, _ := tbl.MetaName(TitleMetaName)
	assert.Equal(t, 20, m.ID)
	assert.Equal(t, 5, m.Bias)
}

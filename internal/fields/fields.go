// Package fields holds the field descriptor table: the MetaNames (searchable
// fields) and Properties (stored fields) a document's tags are matched
// against. A Table is built once from configuration and is read-only after
// that, so any number of concurrent parses may share it.
package fields

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

const (
	DefaultMetaName     = "swishdefault"
	TitleMetaName       = "swishtitle"
	TitleProperty       = "swishtitle"
	DescriptionProperty = "swishdescription"
)

const (
	defaultMetaID     = 1
	titleMetaID       = 2
	descriptionPropID = 1
	titlePropID       = 2
)

// MetaName is a searchable field. Tokens keep a pointer to the descriptor
// they were produced under.
type MetaName struct {
	ID       int
	Name     string
	Bias     int
	AliasFor string
}

// IsAlias reports whether this entry only redirects to another MetaName.
func (m *MetaName) IsAlias() bool { return m.AliasFor != "" }

// PropertyType is the declared value type of a Property.
type PropertyType int

const (
	TypeString PropertyType = iota
	TypeInt
	TypeDate
)

func (t PropertyType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDate:
		return "date"
	default:
		return "string"
	}
}

// ParsePropertyType maps a config value to a PropertyType. The empty string
// means string.
func ParsePropertyType(s string) (PropertyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return TypeString, nil
	case "int", "integer":
		return TypeInt, nil
	case "date":
		return TypeDate, nil
	default:
		return TypeString, fmt.Errorf("%w: unknown property type %q", apperrors.ErrConfigMismatch, s)
	}
}

// Property is a stored field.
type Property struct {
	ID         int
	Name       string
	Type       PropertyType
	IgnoreCase bool
	Verbatim   bool
	Sort       bool
	Max        int
	AliasFor   string
}

func (p *Property) IsAlias() bool { return p.AliasFor != "" }

// Table is the field descriptor table.
type Table struct {
	metas     map[string]*MetaName
	metaIDs   map[int]*MetaName
	props     map[string]*Property
	propIDs   map[int]*Property
	metaOrder []string
	propOrder []string
}

// Default returns a table holding only the built-in fields.
func Default() *Table {
	t, err := New(config.FieldsConfig{})
	if err != nil {
		panic(err)
	}
	return t
}

// New builds a Table from configuration. The built-in fields are added
// unless the configuration declares them itself. Fields without an id get
// the next free one.
func New(cfg config.FieldsConfig) (*Table, error) {
	t := &Table{
		metas:   make(map[string]*MetaName),
		metaIDs: make(map[int]*MetaName),
		props:   make(map[string]*Property),
		propIDs: make(map[int]*Property),
	}

	declared := make(map[string]bool)
	for _, mc := range cfg.MetaNames {
		declared[strings.ToLower(mc.Name)] = true
	}
	metas := make([]config.MetaNameConfig, 0, len(cfg.MetaNames)+2)
	if !declared[DefaultMetaName] {
		metas = append(metas, config.MetaNameConfig{Name: DefaultMetaName, ID: defaultMetaID})
	}
	if !declared[TitleMetaName] {
		metas = append(metas, config.MetaNameConfig{Name: TitleMetaName, ID: titleMetaID})
	}
	metas = append(metas, cfg.MetaNames...)

	declared = make(map[string]bool)
	for _, pc := range cfg.Properties {
		declared[strings.ToLower(pc.Name)] = true
	}
	props := make([]config.PropertyConfig, 0, len(cfg.Properties)+2)
	if !declared[DescriptionProperty] {
		props = append(props, config.PropertyConfig{Name: DescriptionProperty, ID: descriptionPropID})
	}
	if !declared[TitleProperty] {
		props = append(props, config.PropertyConfig{Name: TitleProperty, ID: titlePropID})
	}
	props = append(props, cfg.Properties...)

	if err := t.addMetaNames(metas); err != nil {
		return nil, err
	}
	if err := t.addProperties(props); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) addMetaNames(list []config.MetaNameConfig) error {
	next := 1
	for _, mc := range list {
		if mc.ID >= next {
			next = mc.ID + 1
		}
	}
	for _, mc := range list {
		name := strings.ToLower(strings.TrimSpace(mc.Name))
		if name == "" {
			return fmt.Errorf("%w: metaname with empty name", apperrors.ErrConfigMismatch)
		}
		if _, dup := t.metas[name]; dup {
			return fmt.Errorf("%w: metaname %q declared twice", apperrors.ErrConfigMismatch, name)
		}
		id := mc.ID
		if id == 0 {
			id = next
			next++
		}
		if other, dup := t.metaIDs[id]; dup {
			return fmt.Errorf("%w: metaname %q reuses id %d of %q", apperrors.ErrConfigMismatch, name, id, other.Name)
		}
		m := &MetaName{ID: id, Name: name, Bias: mc.Bias}
		t.metas[name] = m
		t.metaIDs[id] = m
		t.metaOrder = append(t.metaOrder, name)
	}
	for _, mc := range list {
		target := strings.ToLower(strings.TrimSpace(mc.Name))
		for _, a := range mc.Alias {
			alias := strings.ToLower(strings.TrimSpace(a))
			if existing, ok := t.metas[alias]; ok {
				if existing.IsAlias() {
					return fmt.Errorf("%w: metaname alias %q declared twice", apperrors.ErrConfigMismatch, alias)
				}
				return fmt.Errorf("%w: cannot alias %q to %q, it is already a metaname", apperrors.ErrConfigMismatch, alias, target)
			}
			t.metas[alias] = &MetaName{ID: t.metas[target].ID, Name: alias, AliasFor: target}
		}
	}
	return nil
}

func (t *Table) addProperties(list []config.PropertyConfig) error {
	next := 1
	for _, pc := range list {
		if pc.ID >= next {
			next = pc.ID + 1
		}
	}
	for _, pc := range list {
		name := strings.ToLower(strings.TrimSpace(pc.Name))
		if name == "" {
			return fmt.Errorf("%w: property with empty name", apperrors.ErrConfigMismatch)
		}
		if _, dup := t.props[name]; dup {
			return fmt.Errorf("%w: property %q declared twice", apperrors.ErrConfigMismatch, name)
		}
		typ, err := ParsePropertyType(pc.Type)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		id := pc.ID
		if id == 0 {
			id = next
			next++
		}
		if other, dup := t.propIDs[id]; dup {
			return fmt.Errorf("%w: property %q reuses id %d of %q", apperrors.ErrConfigMismatch, name, id, other.Name)
		}
		ignoreCase := true
		if pc.IgnoreCase != nil {
			ignoreCase = *pc.IgnoreCase
		}
		p := &Property{
			ID:         id,
			Name:       name,
			Type:       typ,
			IgnoreCase: ignoreCase,
			Verbatim:   pc.Verbatim,
			Sort:       pc.Sort,
			Max:        pc.Max,
		}
		t.props[name] = p
		t.propIDs[id] = p
		t.propOrder = append(t.propOrder, name)
	}
	for _, pc := range list {
		target := strings.ToLower(strings.TrimSpace(pc.Name))
		for _, a := range pc.Alias {
			alias := strings.ToLower(strings.TrimSpace(a))
			if _, ok := t.props[alias]; ok {
				return fmt.Errorf("%w: cannot alias property %q to %q, name already in use", apperrors.ErrConfigMismatch, alias, target)
			}
			orig := t.props[target]
			t.props[alias] = &Property{
				ID:         orig.ID,
				Name:       alias,
				Type:       orig.Type,
				IgnoreCase: orig.IgnoreCase,
				Verbatim:   orig.Verbatim,
				AliasFor:   target,
			}
		}
	}
	return nil
}

// MetaName returns the descriptor registered under name, alias or not.
func (t *Table) MetaName(name string) (*MetaName, bool) {
	m, ok := t.metas[name]
	return m, ok
}

// Property returns the descriptor registered under name, alias or not.
func (t *Table) Property(name string) (*Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

func (t *Table) IsMetaName(name string) bool {
	_, ok := t.metas[name]
	return ok
}

func (t *Table) IsProperty(name string) bool {
	_, ok := t.props[name]
	return ok
}

// ResolveMetaName follows an alias to its real MetaName. Unknown names are
// returned unchanged.
func (t *Table) ResolveMetaName(name string) string {
	if m, ok := t.metas[name]; ok && m.IsAlias() {
		return m.AliasFor
	}
	return name
}

// ResolveProperty follows an alias to its real Property.
func (t *Table) ResolveProperty(name string) string {
	if p, ok := t.props[name]; ok && p.IsAlias() {
		return p.AliasFor
	}
	return name
}

func (t *Table) MetaNameByID(id int) (*MetaName, bool) {
	m, ok := t.metaIDs[id]
	return m, ok
}

func (t *Table) PropertyByID(id int) (*Property, bool) {
	p, ok := t.propIDs[id]
	return p, ok
}

// MetaNames returns the real (non-alias) MetaNames in declaration order.
func (t *Table) MetaNames() []*MetaName {
	out := make([]*MetaName, 0, len(t.metaOrder))
	for _, name := range t.metaOrder {
		out = append(out, t.metas[name])
	}
	return out
}

// Properties returns the real (non-alias) Properties in declaration order.
func (t *Table) Properties() []*Property {
	out := make([]*Property, 0, len(t.propOrder))
	for _, name := range t.propOrder {
		out = append(out, t.props[name])
	}
	return out
}

// MetaNameNames lists real MetaName names sorted alphabetically.
func (t *Table) MetaNameNames() []string {
	out := append([]string(nil), t.metaOrder...)
	sort.Strings(out)
	return out
}

// PropertyNames lists real Property names sorted alphabetically.
func (t *Table) PropertyNames() []string {
	out := append([]string(nil), t.propOrder...)
	sort.Strings(out)
	return out
}

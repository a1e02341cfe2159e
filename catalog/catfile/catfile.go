// Package catfile loads catalog declarations from YAML files into a
// [catalog.Store].
//
// A catalog file declares one data system: its sources with their
// attributes, the cross-references joining them, data mappings onto the
// canonical vocabulary, and filter conditions. Attributes are referenced in
// "source.attribute" notation throughout. [Schema] describes the format as
// JSON Schema for editor integration.
package catfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/unitab-io/unitab/catalog"
)

// Sentinel errors returned by the loader.
var (
	ErrReadFile    = errors.New("read catalog file")
	ErrInvalidYAML = errors.New("invalid yaml")
	ErrBadCatalog  = errors.New("bad catalog file")
)

// File is the root of a catalog declaration.
type File struct {
	System    System     `yaml:"system"`
	Canonical []string   `yaml:"canonical,omitempty"`
	Sources   []Source   `yaml:"sources"`
	CrossRefs []CrossRef `yaml:"crossRefs,omitempty"`
	Mappings  []Mapping  `yaml:"mappings,omitempty"`
	Filters   []Filter   `yaml:"filters,omitempty"`
}

// System declares the data system the file belongs to.
type System struct {
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active,omitempty"`
}

// Source declares one data source and its attributes.
type Source struct {
	Name        string      `yaml:"name"`
	File        string      `yaml:"file,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Active      *bool       `yaml:"active,omitempty"`
	Master      bool        `yaml:"master,omitempty"`
	Attributes  []Attribute `yaml:"attributes,omitempty"`
}

// Attribute declares one column of a data source.
type Attribute struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// CrossRef declares a cross-reference and its equality mappings.
type CrossRef struct {
	Name     string         `yaml:"name"`
	Active   *bool          `yaml:"active,omitempty"`
	Mappings []CrossRefEdge `yaml:"mappings"`
}

// CrossRefEdge is one equality edge, both ends in "source.attribute"
// notation.
type CrossRefEdge struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Mapping binds a canonical attribute to a primary and optional secondary
// source attribute, in "source.attribute" notation.
type Mapping struct {
	Canonical string `yaml:"canonical"`
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary,omitempty"`
}

// Filter declares a filter condition on a source attribute.
type Filter struct {
	Name      string `yaml:"name"`
	Attribute string `yaml:"attribute"`
	Operator  string `yaml:"operator"`
	Value     string `yaml:"value"`
}

// active treats an omitted flag as true.
func active(b *bool) bool {
	return b == nil || *b
}

// splitRef splits a "source.attribute" reference.
func splitRef(ref string) (string, string, error) {
	source, attr, ok := strings.Cut(ref, ".")
	if !ok || source == "" || attr == "" || strings.Contains(attr, ".") {
		return "", "", fmt.Errorf("%w: reference %q must be source.attribute", ErrBadCatalog, ref)
	}

	return source, attr, nil
}

// Parse decodes a catalog file. Unknown and duplicate keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}

	if f.System.Name == "" {
		return nil, fmt.Errorf("%w: system name is required", ErrBadCatalog)
	}

	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("%w: at least one source is required", ErrBadCatalog)
	}

	return &f, nil
}

// Load parses a catalog file and materializes it into store, returning the
// created system's ID. Canonical attributes are global: names already
// present in the store are reused, new ones are appended in file order.
func Load(ctx context.Context, store catalog.Store, data []byte) (int64, error) {
	f, err := Parse(data)
	if err != nil {
		return 0, err
	}

	return f.Apply(ctx, store)
}

// LoadFile reads path and loads it via [Load].
func LoadFile(ctx context.Context, store catalog.Store, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFile, err)
	}

	return Load(ctx, store, data)
}

// Apply materializes an already parsed file into store.
func (f *File) Apply(ctx context.Context, store catalog.Store) (int64, error) {
	sys := catalog.DataSystem{Name: f.System.Name, Active: active(f.System.Active)}
	if err := store.CreateSystem(ctx, &sys); err != nil {
		return 0, fmt.Errorf("create system %q: %w", sys.Name, err)
	}

	sourceIDs := make(map[string]int64, len(f.Sources))
	attrIDs := make(map[string]int64)

	for _, s := range f.Sources {
		src := catalog.DataSource{
			SystemID:    sys.ID,
			Name:        s.Name,
			FileName:    s.File,
			Description: s.Description,
			Active:      active(s.Active),
			Master:      s.Master,
		}
		if err := store.CreateSource(ctx, &src); err != nil {
			return 0, fmt.Errorf("create source %q: %w", s.Name, err)
		}

		sourceIDs[s.Name] = src.ID

		for _, a := range s.Attributes {
			dataType, err := catalog.ParseDataType(a.Type)
			if err != nil {
				return 0, fmt.Errorf("source %q attribute %q: %w", s.Name, a.Name, err)
			}

			attr := catalog.Attribute{
				SourceID: src.ID,
				Name:     a.Name,
				DataType: dataType,
				Format:   a.Format,
			}
			if err := store.CreateAttribute(ctx, &attr); err != nil {
				return 0, fmt.Errorf("source %q attribute %q: %w", s.Name, a.Name, err)
			}

			attrIDs[s.Name+"."+a.Name] = attr.ID
		}
	}

	canonicalIDs, err := ensureCanonicals(ctx, store, f.Canonical)
	if err != nil {
		return 0, err
	}

	resolve := func(ref string) (catalog.Binding, error) {
		source, _, err := splitRef(ref)
		if err != nil {
			return catalog.Binding{}, err
		}

		if _, ok := sourceIDs[source]; !ok {
			return catalog.Binding{}, fmt.Errorf("%w: reference %q names unknown source %q", ErrBadCatalog, ref, source)
		}

		attrID, ok := attrIDs[ref]
		if !ok {
			return catalog.Binding{}, fmt.Errorf("%w: reference %q names an undeclared attribute", ErrBadCatalog, ref)
		}

		return catalog.Binding{SourceID: sourceIDs[source], AttributeID: attrID}, nil
	}

	for _, x := range f.CrossRefs {
		xref := catalog.CrossRef{SystemID: sys.ID, Name: x.Name, Active: active(x.Active)}
		if err := store.CreateCrossRef(ctx, &xref); err != nil {
			return 0, fmt.Errorf("create cross-reference %q: %w", x.Name, err)
		}

		for _, edge := range x.Mappings {
			from, err := resolve(edge.Source)
			if err != nil {
				return 0, fmt.Errorf("cross-reference %q: %w", x.Name, err)
			}

			to, err := resolve(edge.Target)
			if err != nil {
				return 0, fmt.Errorf("cross-reference %q: %w", x.Name, err)
			}

			m := catalog.CrossRefMapping{
				CrossRefID:         xref.ID,
				SourceDataSourceID: from.SourceID,
				SourceAttributeID:  from.AttributeID,
				TargetDataSourceID: to.SourceID,
				TargetAttributeID:  to.AttributeID,
			}
			if err := store.CreateCrossRefMapping(ctx, &m); err != nil {
				return 0, fmt.Errorf("cross-reference %q: %w", x.Name, err)
			}
		}
	}

	for _, m := range f.Mappings {
		canonicalID, ok := canonicalIDs[m.Canonical]
		if !ok {
			return 0, fmt.Errorf("%w: mapping references undeclared canonical %q", ErrBadCatalog, m.Canonical)
		}

		primary, err := resolve(m.Primary)
		if err != nil {
			return 0, fmt.Errorf("mapping %q: %w", m.Canonical, err)
		}

		dm := catalog.DataMapping{SystemID: sys.ID, CanonicalID: canonicalID, Primary: primary}

		if m.Secondary != "" {
			secondary, err := resolve(m.Secondary)
			if err != nil {
				return 0, fmt.Errorf("mapping %q: %w", m.Canonical, err)
			}

			dm.Secondary = &secondary
		}

		if err := store.CreateDataMapping(ctx, &dm); err != nil {
			return 0, fmt.Errorf("mapping %q: %w", m.Canonical, err)
		}
	}

	for _, flt := range f.Filters {
		op, err := catalog.ParseOperator(flt.Operator)
		if err != nil {
			return 0, fmt.Errorf("filter %q: %w", flt.Name, err)
		}

		b, err := resolve(flt.Attribute)
		if err != nil {
			return 0, fmt.Errorf("filter %q: %w", flt.Name, err)
		}

		fc := catalog.FilterCondition{
			Name:        flt.Name,
			SystemID:    sys.ID,
			SourceID:    b.SourceID,
			AttributeID: b.AttributeID,
			Operator:    op,
			Value:       flt.Value,
		}
		if err := store.CreateFilter(ctx, &fc); err != nil {
			return 0, fmt.Errorf("filter %q: %w", flt.Name, err)
		}
	}

	return sys.ID, nil
}

// ensureCanonicals resolves declared canonical names to IDs, creating the
// ones the store does not hold yet. Existing names keep their position in
// the global vocabulary.
func ensureCanonicals(ctx context.Context, store catalog.Store, names []string) (map[string]int64, error) {
	existing, err := store.Canonicals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list canonicals: %w", err)
	}

	ids := make(map[string]int64, len(existing)+len(names))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}

	for _, name := range names {
		if _, ok := ids[name]; ok {
			continue
		}

		c := catalog.Canonical{Name: name}
		if err := store.CreateCanonical(ctx, &c); err != nil {
			return nil, fmt.Errorf("create canonical %q: %w", name, err)
		}

		ids[name] = c.ID
	}

	return ids, nil
}

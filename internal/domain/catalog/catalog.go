// Package catalog provides the property catalog: the set of recognized
// molecular properties with their types, bounds, and units.  A Catalog is
// immutable after construction; range overrides produce a new Catalog rather
// than mutating the original.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// Catalog is the validated, immutable set of recognized property definitions.
// Lookups are case-sensitive: "LogP" and "logp" are distinct property names.
type Catalog struct {
	defs     map[string]mtypes.PropertyDefinition
	order    []string
	required map[string]struct{}
}

// New constructs a Catalog from the given definitions.  It returns an
// ErrCodeCatalogInvalid error when a definition carries an empty or duplicate
// name, an unrecognized type, or a min bound above its max bound, or when a
// required name does not refer to a defined property.
func New(defs []mtypes.PropertyDefinition, required []string) (*Catalog, error) {
	c := &Catalog{
		defs:     make(map[string]mtypes.PropertyDefinition, len(defs)),
		order:    make([]string, 0, len(defs)),
		required: make(map[string]struct{}, len(required)),
	}

	for _, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "property name cannot be empty")
		}
		if strings.EqualFold(d.Name, mtypes.StructureProperty) {
			return nil, errors.New(errors.ErrCodeCatalogInvalid,
				"the structure property is reserved and cannot be declared in the catalog").
				WithDetail(fmt.Sprintf("name=%s", d.Name))
		}
		if _, dup := c.defs[d.Name]; dup {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "duplicate property name").
				WithDetail(fmt.Sprintf("name=%s", d.Name))
		}
		if !d.Type.IsValid() {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "unrecognized property type").
				WithDetail(fmt.Sprintf("name=%s type=%s", d.Name, d.Type))
		}
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "min bound exceeds max bound").
				WithDetail(fmt.Sprintf("name=%s min=%g max=%g", d.Name, *d.Min, *d.Max))
		}
		c.defs[d.Name] = d
		c.order = append(c.order, d.Name)
	}

	for _, name := range required {
		if _, ok := c.defs[name]; !ok {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "required property is not defined").
				WithDetail(fmt.Sprintf("name=%s", name))
		}
		c.required[name] = struct{}{}
	}

	return c, nil
}

// Definition returns the definition for name, with ok reporting whether the
// property exists in the catalog.
func (c *Catalog) Definition(name string) (mtypes.PropertyDefinition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Has reports whether name is a defined catalog property.
func (c *Catalog) Has(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// Names returns the property names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of defined properties.
func (c *Catalog) Len() int { return len(c.defs) }

// IsRequired reports whether name must be present on every imported molecule.
func (c *Catalog) IsRequired(name string) bool {
	_, ok := c.required[name]
	return ok
}

// Required returns the required property names sorted alphabetically.
func (c *Catalog) Required() []string {
	out := make([]string, 0, len(c.required))
	for name := range c.required {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Bounds returns the effective inclusive {min, max} bounds for name.
// Nil pointers leave the corresponding side open.
func (c *Catalog) Bounds(name string) (min, max *float64) {
	d, ok := c.defs[name]
	if !ok {
		return nil, nil
	}
	return d.Min, d.Max
}

// Range returns the effective bounds for name as a PropertyRange, with ok
// reporting whether the property exists.
func (c *Catalog) Range(name string) (mtypes.PropertyRange, bool) {
	d, ok := c.defs[name]
	if !ok {
		return mtypes.PropertyRange{}, false
	}
	return mtypes.PropertyRange{Min: d.Min, Max: d.Max}, true
}

// WithRanges returns a copy of the catalog with per-property bound overrides
// applied.  An override replaces only the bounds it sets; a nil side keeps the
// catalog's own bound.  Overrides for unknown properties or with min > max
// are rejected with ErrCodeCatalogInvalid.
func (c *Catalog) WithRanges(overrides map[string]mtypes.PropertyRange) (*Catalog, error) {
	if len(overrides) == 0 {
		return c, nil
	}

	clone := &Catalog{
		defs:     make(map[string]mtypes.PropertyDefinition, len(c.defs)),
		order:    c.order,
		required: c.required,
	}
	for name, d := range c.defs {
		clone.defs[name] = d
	}

	for name, r := range overrides {
		d, ok := clone.defs[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "range override for unknown property").
				WithDetail(fmt.Sprintf("name=%s", name))
		}
		if r.Min != nil {
			d.Min = r.Min
		}
		if r.Max != nil {
			d.Max = r.Max
		}
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "range override min exceeds max").
				WithDetail(fmt.Sprintf("name=%s min=%g max=%g", name, *d.Min, *d.Max))
		}
		clone.defs[name] = d
	}

	return clone, nil
}

func f(v float64) *float64 { return &v }

// Default returns the built-in standard catalog covering the properties most
// molecular datasets carry.  None of them are required by default; callers
// needing stricter intake rules should construct their own catalog or load
// one from file.
func Default() *Catalog {
	c, err := New([]mtypes.PropertyDefinition{
		{Name: "compound_id", Type: mtypes.PropertyString},
		{Name: "name", Type: mtypes.PropertyString},
		{Name: "cas_number", Type: mtypes.PropertyString},
		{Name: "molecular_formula", Type: mtypes.PropertyString},
		{Name: "molecular_weight", Type: mtypes.PropertyNumeric, Min: f(0), Max: f(10000), Unit: "g/mol"},
		{Name: "logp", Type: mtypes.PropertyNumeric, Min: f(-10), Max: f(20)},
		{Name: "tpsa", Type: mtypes.PropertyNumeric, Min: f(0), Max: f(1000), Unit: "Å²"},
		{Name: "melting_point", Type: mtypes.PropertyNumeric, Min: f(-273.15), Unit: "°C"},
		{Name: "boiling_point", Type: mtypes.PropertyNumeric, Min: f(-273.15), Unit: "°C"},
		{Name: "purity", Type: mtypes.PropertyNumeric, Min: f(0), Max: f(100), Unit: "%"},
		{Name: "h_bond_donors", Type: mtypes.PropertyInteger, Min: f(0), Max: f(100)},
		{Name: "h_bond_acceptors", Type: mtypes.PropertyInteger, Min: f(0), Max: f(100)},
		{Name: "rotatable_bonds", Type: mtypes.PropertyInteger, Min: f(0), Max: f(200)},
		{Name: "aromatic_rings", Type: mtypes.PropertyInteger, Min: f(0), Max: f(50)},
		{Name: "is_chiral", Type: mtypes.PropertyBoolean},
	}, nil)
	if err != nil {
		// The built-in catalog is statically correct; a failure here is a
		// programming error.
		panic(err)
	}
	return c
}

// Package molecule defines the shared data types for molecular property
// catalogs, CSV column mappings, and parsed tables.  These types cross layer
// boundaries (config, validators, importer, HTTP handlers) and therefore live
// under pkg/ rather than internal/.
package molecule

import "strings"

// StructureProperty is the reserved property name that marks a mapped column
// as holding the structure notation.  The match is case-insensitive and is
// independent of the property catalog.
const StructureProperty = "smiles"

// PropertyType is the closed set of value types a molecular property can take.
type PropertyType string

const (
	PropertyString  PropertyType = "STRING"
	PropertyNumeric PropertyType = "NUMERIC"
	PropertyInteger PropertyType = "INTEGER"
	PropertyBoolean PropertyType = "BOOLEAN"
)

// IsValid reports whether t is one of the recognized property types.
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyString, PropertyNumeric, PropertyInteger, PropertyBoolean:
		return true
	}
	return false
}

// PropertyDefinition describes one recognized molecular property.
// Min and Max are meaningful only for NUMERIC and INTEGER types; bounds are
// inclusive on both ends.
type PropertyDefinition struct {
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
	Min  *float64     `json:"min,omitempty"`
	Max  *float64     `json:"max,omitempty"`
	Unit string       `json:"unit,omitempty"`
}

// PropertyRange is a narrower {min, max} bound keyed by property name.
// When present for a property it takes precedence over the bounds declared
// inline on the PropertyDefinition, enabling environment-specific overrides
// without catalog edits.
type PropertyRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ColumnMappingEntry is one user-declared mapping of a raw CSV column to a
// system property.
type ColumnMappingEntry struct {
	// CSVColumn is the source column header exactly as it appeared in the file.
	CSVColumn string `json:"csv_column"`

	// PropertyName is the target property key.  The reserved value "smiles"
	// (case-insensitive) marks the structure-notation column.
	PropertyName string `json:"property_name"`

	// PropertyType is the declared type for custom (non-catalog) properties.
	PropertyType PropertyType `json:"property_type,omitempty"`
}

// IsStructureColumn reports whether this entry targets the reserved
// structure-notation property.
func (e ColumnMappingEntry) IsStructureColumn() bool {
	return strings.EqualFold(e.PropertyName, StructureProperty)
}

// ColumnMapping is the ordered set of column mappings for one import session.
type ColumnMapping struct {
	Entries []ColumnMappingEntry `json:"entries"`
}

// StructureEntry returns the entry mapped to the reserved structure property,
// or false when none (or more than one) exists.  Callers must have validated
// the mapping first; on an unvalidated mapping the first match wins.
func (m ColumnMapping) StructureEntry() (ColumnMappingEntry, bool) {
	for _, e := range m.Entries {
		if e.IsStructureColumn() {
			return e, true
		}
	}
	return ColumnMappingEntry{}, false
}

// Table is a parsed tabular upload: a header row plus data rows of raw string
// cells.  Parsing raw CSV/Excel bytes into a Table (encoding detection,
// header extraction) happens outside this library.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

package validate

import (
	"github.com/chemlattice/molimport/internal/domain/catalog"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// missingMappingError is the single error returned when no mapping is
// supplied at all; nothing else is checkable without one.
const missingMappingError = "Column mapping is required"

// structureMappingError covers both zero and multiple structure-column
// mappings; the invariant is "exactly one".
const structureMappingError = "Column mapping must include a mapping for SMILES"

// MappingResult is the outcome of validating a column mapping.
// A mapping is valid iff Errors is empty.
type MappingResult struct {
	Valid  bool
	Errors []string
}

// MappingValidator validates a user-declared CSV→property mapping before any
// row is processed.  All rules are checked and all violations accumulated; a
// user fixing a mapping sees every problem at once.
type MappingValidator struct {
	catalog *catalog.Catalog
}

// NewMappingValidator constructs a MappingValidator over cat.
func NewMappingValidator(cat *catalog.Catalog) *MappingValidator {
	return &MappingValidator{catalog: cat}
}

// Validate checks mapping against three rules:
//
//  1. Exactly one entry targets the reserved structure property
//     (case-insensitive "smiles").
//  2. No two entries share the same property name (exact, case-sensitive
//     compare); every duplicate occurrence is reported.
//  3. Every non-structure property name must exist in the catalog.  An
//     explicitly mapped unknown name is an error, unlike unmapped custom
//     properties which are tolerated during row validation.
//
// A nil mapping (or nil entry list) short-circuits with a single error.
func (v *MappingValidator) Validate(mapping *mtypes.ColumnMapping) MappingResult {
	if mapping == nil || mapping.Entries == nil {
		return MappingResult{Valid: false, Errors: []string{missingMappingError}}
	}

	var errs []string

	structureCount := 0
	for _, e := range mapping.Entries {
		if e.IsStructureColumn() {
			structureCount++
		}
	}
	if structureCount != 1 {
		errs = append(errs, structureMappingError)
	}

	seen := make(map[string]bool, len(mapping.Entries))
	for _, e := range mapping.Entries {
		if seen[e.PropertyName] {
			errs = append(errs, "Duplicate property mapping: "+e.PropertyName)
			continue
		}
		seen[e.PropertyName] = true
	}

	for _, e := range mapping.Entries {
		if e.IsStructureColumn() {
			continue
		}
		if !v.catalog.Has(e.PropertyName) {
			errs = append(errs, "Unknown property: "+e.PropertyName)
		}
	}

	return MappingResult{Valid: len(errs) == 0, Errors: errs}
}

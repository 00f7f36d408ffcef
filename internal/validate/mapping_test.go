package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

func entry(col, prop string) mtypes.ColumnMappingEntry {
	return mtypes.ColumnMappingEntry{CSVColumn: col, PropertyName: prop}
}

func TestValidateMapping_Valid(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("SMILES", "smiles"),
		entry("MW", "molecular_weight"),
		entry("Name", "name"),
	}})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateMapping_NilShortCircuits(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	for _, m := range []*mtypes.ColumnMapping{nil, {}} {
		res := v.Validate(m)
		assert.False(t, res.Valid)
		assert.Equal(t, []string{"Column mapping is required"}, res.Errors)
	}
}

func TestValidateMapping_NoStructureColumn(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("MW", "molecular_weight"),
	}})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Column mapping must include a mapping for SMILES")
}

func TestValidateMapping_MultipleStructureColumns(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	// Case variants still collide on the reserved token.
	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("A", "SMILES"),
		entry("B", "Smiles"),
	}})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Column mapping must include a mapping for SMILES")
}

func TestValidateMapping_DuplicatePropertyName(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("S", "smiles"),
		entry("A", "molecular_weight"),
		entry("B", "molecular_weight"),
		entry("C", "molecular_weight"),
	}})
	assert.False(t, res.Valid)
	// Each duplicate occurrence is reported.
	count := 0
	for _, e := range res.Errors {
		if e == "Duplicate property mapping: molecular_weight" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestValidateMapping_CaseSensitiveDuplicates(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	// "name" and "Name" differ case-sensitively: not duplicates, but "Name"
	// is unknown to the catalog.
	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("S", "smiles"),
		entry("A", "name"),
		entry("B", "Name"),
	}})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Unknown property: Name"}, res.Errors)
}

func TestValidateMapping_UnknownProperty(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("S", "smiles"),
		entry("F", "FooBar"),
	}})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Unknown property: FooBar"}, res.Errors)
}

func TestValidateMapping_AccumulatesAllErrors(t *testing.T) {
	v := NewMappingValidator(testCatalog(t))

	res := v.Validate(&mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		entry("A", "molecular_weight"),
		entry("B", "molecular_weight"),
		entry("C", "FooBar"),
	}})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3) // missing smiles + duplicate + unknown
}

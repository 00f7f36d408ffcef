package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyType_IsValid(t *testing.T) {
	assert.True(t, PropertyString.IsValid())
	assert.True(t, PropertyNumeric.IsValid())
	assert.True(t, PropertyInteger.IsValid())
	assert.True(t, PropertyBoolean.IsValid())
	assert.False(t, PropertyType("FLOAT").IsValid())
	assert.False(t, PropertyType("").IsValid())
}

func TestColumnMappingEntry_IsStructureColumn(t *testing.T) {
	assert.True(t, ColumnMappingEntry{PropertyName: "smiles"}.IsStructureColumn())
	assert.True(t, ColumnMappingEntry{PropertyName: "SMILES"}.IsStructureColumn())
	assert.True(t, ColumnMappingEntry{PropertyName: "Smiles"}.IsStructureColumn())
	assert.False(t, ColumnMappingEntry{PropertyName: "molecular_weight"}.IsStructureColumn())
}

func TestColumnMapping_StructureEntry(t *testing.T) {
	m := ColumnMapping{Entries: []ColumnMappingEntry{
		{CSVColumn: "Compound_ID", PropertyName: "compound_id"},
		{CSVColumn: "SMILES", PropertyName: "smiles"},
	}}
	e, ok := m.StructureEntry()
	assert.True(t, ok)
	assert.Equal(t, "SMILES", e.CSVColumn)

	_, ok = ColumnMapping{}.StructureEntry()
	assert.False(t, ok)
}

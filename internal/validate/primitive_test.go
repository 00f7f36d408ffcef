package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemlattice/molimport/internal/domain/molecule"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestRequired(t *testing.T) {
	assert.True(t, Required("x", "f").Valid)
	assert.True(t, Required(0, "f").Valid)
	assert.True(t, Required(false, "f").Valid)

	assert.Equal(t, "f is required", Required(nil, "f").Error)
	assert.Equal(t, "f is required", Required("", "f").Error)
}

func TestStringLength(t *testing.T) {
	assert.True(t, StringLength("hello", "f", nil, nil).Valid)
	assert.True(t, StringLength("hello", "f", ip(1), ip(10)).Valid)

	assert.Equal(t, "f must be a string", StringLength(5, "f", nil, nil).Error)
	assert.Equal(t, "f must be at least 6 characters", StringLength("hello", "f", ip(6), nil).Error)
	assert.Equal(t, "f must be at most 3 characters", StringLength("hello", "f", nil, ip(3)).Error)
}

func TestNumericRange(t *testing.T) {
	assert.True(t, NumericRange(5.0, "f", nil, nil).Valid)
	assert.True(t, NumericRange(5, "f", fp(0), fp(10)).Valid)
	assert.True(t, NumericRange(int64(7), "f", nil, nil).Valid)

	// Inclusive bounds.
	assert.True(t, NumericRange(0.0, "f", fp(0), fp(10)).Valid)
	assert.True(t, NumericRange(10.0, "f", fp(0), fp(10)).Valid)

	assert.Equal(t, "f must be a finite number", NumericRange("5", "f", nil, nil).Error)
	assert.Equal(t, "f must be between 0 and 10", NumericRange(-5.0, "f", fp(0), fp(10)).Error)
	assert.Equal(t, "f must be at least 0", NumericRange(-5.0, "f", fp(0), nil).Error)
	assert.Equal(t, "f must be at most 10", NumericRange(11.0, "f", nil, fp(10)).Error)
}

func TestInteger(t *testing.T) {
	assert.True(t, Integer(5.0, "f", nil, nil).Valid)
	assert.True(t, Integer(5, "f", fp(0), fp(10)).Valid)

	assert.Equal(t, "f must be a whole number", Integer(5.5, "f", nil, nil).Error)
	assert.Equal(t, "f must be between 0 and 10", Integer(20.0, "f", fp(0), fp(10)).Error)
	assert.Equal(t, "f must be a finite number", Integer(true, "f", nil, nil).Error)
}

func TestBoolean(t *testing.T) {
	assert.True(t, Boolean(true, "f").Valid)
	assert.True(t, Boolean(false, "f").Valid)
	assert.Equal(t, "f must be a boolean", Boolean("true", "f").Error)
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("user@example.com", "f").Valid)
	assert.True(t, Email("first.last+tag@sub.example.org", "f").Valid)

	assert.False(t, Email("not-an-email", "f").Valid)
	assert.False(t, Email("user@localhost", "f").Valid)
	assert.False(t, Email("Display Name <user@example.com>", "f").Valid)
	assert.False(t, Email(42, "f").Valid)
}

func TestUUID(t *testing.T) {
	assert.True(t, UUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8", "f").Valid) // v1
	assert.True(t, UUID("f47ac10b-58cc-4372-a567-0e02b2c3d479", "f").Valid) // v4

	assert.False(t, UUID("6ba7b810-9dad-11d1-80b4", "f").Valid)
	assert.False(t, UUID("urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8", "f").Valid)
	assert.False(t, UUID(42, "f").Valid)

	// Version nibble must be 1-5; the nil UUID is version 0.
	assert.False(t, UUID("00000000-0000-0000-0000-000000000000", "f").Valid)
	assert.False(t, UUID("f47ac10b-58cc-9372-a567-0e02b2c3d479", "f").Valid)
}

func TestURL(t *testing.T) {
	assert.True(t, URL("https://example.com/path", "f").Valid)
	assert.True(t, URL("example.com/path", "f").Valid)

	assert.False(t, URL("just-words", "f").Valid)
	assert.False(t, URL(42, "f").Valid)
}

func TestStructure(t *testing.T) {
	parser := molecule.NewNotationParser()

	res, err := Structure(parser, "CCO", "smiles")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = Structure(parser, "CC(=O", "smiles")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "smiles is not a valid structure notation")

	res, err = Structure(parser, "   ", "smiles")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = Structure(parser, 42, "smiles")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

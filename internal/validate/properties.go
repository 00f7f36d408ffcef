package validate

import (
	"github.com/chemlattice/molimport/internal/domain/catalog"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// PropertyResult is the aggregated outcome of validating one property bag.
// Errors is keyed by property name; a bag is valid iff Errors is empty.
type PropertyResult struct {
	Valid  bool
	Errors map[string]string
}

// PropertyValidator validates a full property bag for one candidate molecule
// against the catalog and its required-property policy.  Every violation is
// reported; validation never stops at the first failure, so a user can fix a
// whole CSV in one pass.
type PropertyValidator struct {
	catalog *catalog.Catalog
}

// NewPropertyValidator constructs a PropertyValidator over cat.
func NewPropertyValidator(cat *catalog.Catalog) *PropertyValidator {
	return &PropertyValidator{catalog: cat}
}

// Validate checks properties in full.  Properties absent from the catalog are
// tolerated without error: free-form custom properties are an intentional
// openness policy.  Only an explicit column mapping makes an unknown name an
// error (see MappingValidator).
func (v *PropertyValidator) Validate(properties map[string]interface{}) PropertyResult {
	errs := make(map[string]string)

	for _, name := range v.catalog.Required() {
		if value, present := properties[name]; !present || value == nil {
			errs[name] = name + " is required"
		}
	}

	for name, value := range properties {
		if value == nil {
			continue
		}
		if _, already := errs[name]; already {
			continue
		}
		def, known := v.catalog.Definition(name)
		if !known {
			continue
		}
		if res := v.checkTyped(def, name, value); !res.Valid {
			errs[name] = res.Error
		}
	}

	return PropertyResult{Valid: len(errs) == 0, Errors: errs}
}

func (v *PropertyValidator) checkTyped(def mtypes.PropertyDefinition, name string, value interface{}) Result {
	switch def.Type {
	case mtypes.PropertyString:
		return StringLength(value, name, nil, nil)
	case mtypes.PropertyNumeric:
		min, max := v.catalog.Bounds(name)
		return NumericRange(value, name, min, max)
	case mtypes.PropertyInteger:
		min, max := v.catalog.Bounds(name)
		return Integer(value, name, min, max)
	case mtypes.PropertyBoolean:
		return Boolean(value, name)
	}
	// Catalog construction rejects unknown types; nothing to check here.
	return ok()
}

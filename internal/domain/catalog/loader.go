package catalog

import (
	"github.com/spf13/viper"

	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// catalogFile mirrors the on-disk catalog document.
//
//	properties:
//	  - name: molecular_weight
//	    type: NUMERIC
//	    min: 0
//	    max: 10000
//	    unit: g/mol
//	required:
//	  - molecular_weight
type catalogFile struct {
	Properties []propertyEntry `mapstructure:"properties"`
	Required   []string        `mapstructure:"required"`
}

type propertyEntry struct {
	Name string   `mapstructure:"name"`
	Type string   `mapstructure:"type"`
	Min  *float64 `mapstructure:"min"`
	Max  *float64 `mapstructure:"max"`
	Unit string   `mapstructure:"unit"`
}

// LoadFile reads a YAML catalog document from path and constructs a Catalog
// from it.  Structural problems (unreadable file, bad YAML) and semantic
// problems (duplicate names, bad bounds) both surface as ErrCodeCatalogInvalid.
func LoadFile(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogInvalid, "failed to read catalog file").
			WithDetail(path)
	}

	var doc catalogFile
	if err := v.Unmarshal(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogInvalid, "failed to parse catalog file").
			WithDetail(path)
	}

	defs := make([]mtypes.PropertyDefinition, 0, len(doc.Properties))
	for _, p := range doc.Properties {
		defs = append(defs, mtypes.PropertyDefinition{
			Name: p.Name,
			Type: mtypes.PropertyType(p.Type),
			Min:  p.Min,
			Max:  p.Max,
			Unit: p.Unit,
		})
	}

	return New(defs, doc.Required)
}

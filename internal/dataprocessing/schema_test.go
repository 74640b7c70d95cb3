package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema(t *testing.T) {
	cols := DefaultConfig().Columns

	tests := []struct {
		name        string
		header      []string
		wantMissing []string
	}{
		{
			name:   "all required present",
			header: []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO"},
		},
		{
			name:   "extra and reordered columns are fine",
			header: []string{"GUIA", "DESTINO", "TRANSPORTISTA", "PRODUCTO", "TONELAJE", "FECHA", "PATENTE"},
		},
		{
			name:   "padding and byte order mark are ignored",
			header: []string{"\ufeffFECHA", " TONELAJE ", "PRODUCTO\t", "TRANSPORTISTA", "DESTINO"},
		},
		{
			name:        "every missing column is reported in configured order",
			header:      []string{"PRODUCTO", "FECHA"},
			wantMissing: []string{"TONELAJE", "TRANSPORTISTA", "DESTINO"},
		},
		{
			name:        "matching is case-sensitive",
			header:      []string{"fecha", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO"},
			wantMissing: []string{"FECHA"},
		},
		{
			name:        "empty header",
			header:      nil,
			wantMissing: []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO"},
		},
		{
			name:   "regulation columns are not required",
			header: []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema(tt.header, cols)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantMissing, schemaErr.Missing)
			for _, col := range tt.wantMissing {
				assert.Contains(t, err.Error(), col)
			}
		})
	}
}

func TestPresentColumns(t *testing.T) {
	present, missing := presentColumns(
		[]string{"FECHA", " REGULACION 3 ", "REGULACION 1"},
		[]string{"REGULACION 1", "REGULACION 2", "REGULACION 3"},
	)

	assert.Equal(t, []string{"REGULACION 1", "REGULACION 3"}, present)
	assert.Equal(t, []string{"REGULACION 2"}, missing)
}

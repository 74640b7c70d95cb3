package dataprocessing

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"haulpulse/pkg/contracts/domain"
)

var defaultHeader = []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO", "REGULACION 1", "REGULACION 2", "REGULACION 3"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) time.Time {
	t, err := time.Parse(DateLayoutISO, s)
	if err != nil {
		panic(err)
	}
	return t
}

// shipment builds a raw row in the default export layout.
func shipment(fecha, tonelaje, producto, transportista, destino string) domain.RawRecord {
	return domain.RawRecord{
		"FECHA":         fecha,
		"TONELAJE":      tonelaje,
		"PRODUCTO":      producto,
		"TRANSPORTISTA": transportista,
		"DESTINO":       destino,
	}
}

func rawTable(rows ...domain.RawRecord) domain.RawTable {
	return domain.RawTable{Source: "test.xlsx", Header: defaultHeader, Rows: rows}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultConfig(), discardLogger(), nil)
	require.NoError(t, err)
	return p
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(DefaultConfig(), discardLogger())
	require.NoError(t, err)
	return n
}

// batchOf normalizes rows with the default configuration.
func batchOf(t *testing.T, rows ...domain.RawRecord) *Batch {
	t.Helper()
	return newTestNormalizer(t).Normalize(rawTable(rows...))
}

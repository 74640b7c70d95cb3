package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ShipmentHeader is the default shipment sheet header.
var ShipmentHeader = []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO", "REGULACION 1", "REGULACION 2", "REGULACION 3"}

// ShipmentCSV is a small dispatch log spanning two weeks of January 2024.
// One row has an unreadable date and one an unreadable volume.
const ShipmentCSV = "FECHA;TONELAJE;PRODUCTO;TRANSPORTISTA;DESTINO;REGULACION 1;REGULACION 2;REGULACION 3\n" +
	"01-01-2024;60;ARENA;M AND Q SPA;NORTE;X;;\n" +
	"01-01-2024;40;GRAVA;MQ SPA;SUR;;X;\n" +
	"01-01-2024;sin dato;ARENA;Jorquera Transporte S A;NORTE;;;\n" +
	"02-01-2024;25;ARENA;TRANSPORTES SAN JUAN;NORTE;X;X;\n" +
	"fecha mala;10;GRAVA;MQ SPA;SUR;;;\n" +
	"08-01-2024;50;ARENA;M&Q;NORTE;;;X\n" +
	"09-01-2024;30;GRAVA;JORQUERA TRANSPORTE S.A.;SUR;;;\n"

// WriteShipmentWorkbook saves rows under ShipmentHeader as an xlsx file in a
// temporary directory and returns its path.
func WriteShipmentWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	header := make([]any, len(ShipmentHeader))
	for i, h := range ShipmentHeader {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "despachos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

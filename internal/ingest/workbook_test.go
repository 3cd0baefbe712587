package ingest_test

import (
	"strings"
	"testing"
	"time"

	"VentaCommSaas/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const salesCSV = `Fecha,Nombre,Zona,Plan,Vendedor,Dinero Recibido WELLCOMM,Medio de Pago,Monto Suscripcion
15/03/2024,Ana Pérez,Centro,Plan Básico,Luis,PAGADO,Zelle,40
16/03/2024,Bruno Díaz,Norte,Plan Premium,María,PENDIENTE,Zelle,40
`

func salesXLSX(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Fecha", "Nombre", "Zona", "Plan", "Vendedor", "Dinero Recibido WELLCOMM", "Medio de Pago", "Monto Suscripcion"},
		{"15/03/2024", "Ana Pérez", "Centro", "Plan Básico", "Luis", "PAGADO", "Pago Móvil", "25,50"},
		{"16/03/2024", "Bruno Díaz", "Norte", "Plan Premium", "María", "PAGADO", "Zelle", "40"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseFileCSV(t *testing.T) {
	res := ingest.ParseFile([]byte(salesCSV), "ventas.csv")

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 1, res.ValidRows)
	assert.Equal(t, 1, res.SkippedRows)
	if assert.Len(t, res.Transactions, 1) {
		tx := res.Transactions[0]
		assert.Equal(t, "Ana Pérez", tx.CustomerName)
		assert.Equal(t, date(2024, time.March, 15), tx.TransactionDate)
		assert.Equal(t, 40.0, tx.SubscriptionAmount)
	}
}

func TestParseFileXLSX(t *testing.T) {
	res := ingest.ParseFile(salesXLSX(t), "ventas.xlsx")

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.ValidRows)
	if assert.Len(t, res.Transactions, 2) {
		assert.Equal(t, ingest.CurrencyBCV, res.Transactions[0].Currency)
		assert.Equal(t, 25.5, res.Transactions[0].SubscriptionAmount)
		assert.Equal(t, ingest.CurrencyUSD, res.Transactions[1].Currency)
	}
}

func TestParseFileExtensionIsOnlyAHint(t *testing.T) {
	// xlsx bytes labeled .xls must fall through to the xlsx decoder.
	res := ingest.ParseFile(salesXLSX(t), "ventas.xls")
	assert.Equal(t, 2, res.ValidRows)

	// csv bytes labeled .xlsx must fall through to the csv decoder.
	res = ingest.ParseFile([]byte(salesCSV), "ventas.xlsx")
	assert.Equal(t, 1, res.ValidRows)
	assert.Equal(t, 1, res.SkippedRows)
}

func TestParseFileUnreadable(t *testing.T) {
	for name, data := range map[string][]byte{
		"binary junk": []byte("\x00\x01\x02junk"),
		"empty":       {},
		"header only": []byte("Fecha,Nombre,Zona\n"),
	} {
		res := ingest.ParseFile(data, name+".xlsx")
		assert.Equal(t, 0, res.TotalRows, name)
		assert.Equal(t, 0, res.ValidRows, name)
		assert.NotNil(t, res.Transactions, name)
	}
}

func TestDecodeWorkbookCSVRaggedRows(t *testing.T) {
	data := strings.Join([]string{
		"Fecha,Nombre,Zona",
		"15/03/2024,Ana",
		"16/03/2024,Bruno,Norte,extra",
	}, "\n")

	rows, err := ingest.DecodeWorkbook([]byte(data), "ventas.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 2)
	assert.Len(t, rows[2], 4)
}

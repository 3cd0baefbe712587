package ingest_test

import (
	"testing"
	"time"

	"VentaCommSaas/internal/ingest"

	"github.com/stretchr/testify/assert"
)

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ingest.Currency
	}{
		{name: "zelle", raw: "Zelle", want: ingest.CurrencyUSD},
		{name: "zelle lowercase", raw: "zelle", want: ingest.CurrencyUSD},
		{name: "cash", raw: "Efectivo", want: ingest.CurrencyUSD},
		{name: "bolivar cash", raw: "Efectivo Bs", want: ingest.CurrencyBCV},
		{name: "pago movil accented", raw: "Pago Móvil", want: ingest.CurrencyBCV},
		{name: "pago movil plain", raw: "pago movil", want: ingest.CurrencyBCV},
		{name: "mixed", raw: "Mixto", want: ingest.CurrencyBCV},
		{name: "efectivo bolivares is not a mapped method", raw: "Efectivo Bolívares", want: ingest.CurrencyUSD},
		{name: "empty", raw: "", want: ingest.CurrencyUSD},
		{name: "unknown", raw: "Transferencia", want: ingest.CurrencyUSD},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ingest.DetectCurrency(tc.raw))
		})
	}
}

func TestTransactionDedupKey(t *testing.T) {
	tx := ingest.Transaction{
		TransactionDate: date(2024, time.March, 15),
		CustomerName:    "Ana Pérez",
		SellerName:      "Luis",
		Zone:            "Centro",
		Plan:            "Plan Básico",
	}
	assert.Equal(t, "Ana Pérez|Plan Básico|Luis|Centro|2024-03-15", tx.DedupKey())

	ref := "REF-99"
	other := tx
	other.ReferenceCode = &ref
	other.PaymentMethod = "Zelle"
	assert.Equal(t, tx.DedupKey(), other.DedupKey(), "payment fields must not affect identity")

	other = tx
	other.TransactionDate = date(2024, time.March, 16)
	assert.NotEqual(t, tx.DedupKey(), other.DedupKey())
}

func TestNormalizeRows(t *testing.T) {
	headers := []string{
		"Fecha", "Nombre", "Zona", "Gratis", "Plan", "Vendedor",
		"Dinero Recibido WELLCOMM", "Medio de Pago", "Monto Suscripcion", "Referencia de Registro",
	}
	rows := [][]string{
		headers,
		{"15/03/2024", "Ana Pérez", "Centro", "", "Plan Básico", "Luis", "pagado", "Zelle", "40", ""},
		{"16/03/2024", "Bruno Díaz", "Norte", "GRATIS", "Plan Premium", "María", "PAGADO", "Pago Móvil", "25,50", "REF-77"},
		{"17/03/2024", "Carla Ruiz", "Sur", "", "Plan Básico", "Luis", "PENDIENTE", "Zelle", "40", ""},
		{"18/03/2024", "Diego Soto", "Sur", "", "Plan Básico", "", "PAGADO", "Efectivo", "40", ""},
		{"sin fecha", "Elena Vidal", "Centro", "", "Plan Básico", "Luis", "PAGADO", "Efectivo", "40", ""},
		{"15/03/2024", "Ana Pérez", "Centro", "", "Plan Básico", "Luis", "PAGADO", "Efectivo Bs", "40", "REF-99"},
		{"19/03/2024", "Fede Gómez", "Este", "", "Plan Básico", "María", "PAGADO", "Mixto", "N/A", ""},
	}

	res := ingest.NormalizeRows(rows)

	assert.Equal(t, 7, res.TotalRows)
	assert.Equal(t, 3, res.ValidRows)
	assert.Equal(t, 3, res.SkippedRows)
	assert.Equal(t, 1, res.DuplicateRows)
	assert.Equal(t, res.TotalRows, res.ValidRows+res.SkippedRows+res.DuplicateRows)
	assert.Equal(t, headers, res.Headers)
	assert.Equal(t, 7, res.Columns[ingest.FieldMedioPago])

	if !assert.Len(t, res.Transactions, 3) {
		return
	}

	ana := res.Transactions[0]
	assert.Equal(t, date(2024, time.March, 15), ana.TransactionDate)
	assert.Equal(t, "Ana Pérez", ana.CustomerName)
	assert.Equal(t, "Luis", ana.SellerName)
	assert.Equal(t, "Centro", ana.Zone)
	assert.Equal(t, "Plan Básico", ana.Plan)
	assert.Equal(t, ingest.InstallationPaid, ana.InstallationType)
	assert.Equal(t, ingest.CurrencyUSD, ana.Currency)
	assert.Equal(t, "Zelle", ana.PaymentMethod)
	assert.Equal(t, 40.0, ana.SubscriptionAmount)
	assert.Nil(t, ana.ReferenceCode)

	bruno := res.Transactions[1]
	assert.Equal(t, ingest.InstallationFree, bruno.InstallationType)
	assert.Equal(t, ingest.CurrencyBCV, bruno.Currency)
	assert.Equal(t, 25.5, bruno.SubscriptionAmount)
	if assert.NotNil(t, bruno.ReferenceCode) {
		assert.Equal(t, "REF-77", *bruno.ReferenceCode)
	}

	fede := res.Transactions[2]
	assert.Equal(t, ingest.CurrencyBCV, fede.Currency)
	assert.Equal(t, 0.0, fede.SubscriptionAmount, "unreadable amounts degrade to zero")

	if assert.Len(t, res.Duplicates, 1) {
		assert.Equal(t, ingest.DuplicateInfo{
			RowNumber:    7,
			CustomerName: "Ana Pérez",
			SellerName:   "Luis",
			Plan:         "Plan Básico",
			Zone:         "Centro",
			Date:         "2024-03-15",
		}, res.Duplicates[0])
	}
}

func TestNormalizeRowsEmptyGrids(t *testing.T) {
	for _, rows := range [][][]string{nil, {}, {{"Fecha", "Nombre"}}} {
		res := ingest.NormalizeRows(rows)
		assert.Equal(t, 0, res.TotalRows)
		assert.Equal(t, 0, res.ValidRows)
		assert.Equal(t, 0, res.SkippedRows)
		assert.Equal(t, 0, res.DuplicateRows)
		assert.NotNil(t, res.Transactions)
		assert.Empty(t, res.Transactions)
		assert.NotNil(t, res.Duplicates)
	}
}

func TestNormalizeRowsUnnamedPaymentColumn(t *testing.T) {
	rows := [][]string{
		{"Fecha", "Nombre", "Zona", "", "Vendedor", "Dinero Recibido WELLCOMM", "Plan", "Monto Suscripcion"},
		{"15/03/2024", "Gina León", "Oeste", "Pago Móvil", "Luis", "PAGADO", "Plan Básico", "40"},
		{"16/03/2024", "Hugo Paz", "Oeste", "Zelle", "Luis", "PAGADO", "Plan Básico", "40"},
	}

	res := ingest.NormalizeRows(rows)

	assert.Equal(t, 3, res.Columns[ingest.FieldMedioPago])
	if !assert.Len(t, res.Transactions, 2) {
		return
	}
	assert.Equal(t, "Pago Móvil", res.Transactions[0].PaymentMethod)
	assert.Equal(t, ingest.CurrencyBCV, res.Transactions[0].Currency)
	assert.Equal(t, "Zelle", res.Transactions[1].PaymentMethod)
	assert.Equal(t, ingest.CurrencyUSD, res.Transactions[1].Currency)
}

func TestNormalizeRowsShortRows(t *testing.T) {
	rows := [][]string{
		{"Fecha", "Nombre", "Zona", "Plan", "Vendedor", "Dinero Recibido WELLCOMM"},
		{"15/03/2024", "Iris Mora", "Centro", "Plan Básico", "Luis", "PAGADO"},
		{"16/03/2024", "Juan Peña"},
	}

	res := ingest.NormalizeRows(rows)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 1, res.ValidRows)
	assert.Equal(t, 1, res.SkippedRows, "rows missing the paid marker are skipped, not errors")
	if assert.Len(t, res.Transactions, 1) {
		tx := res.Transactions[0]
		assert.Equal(t, "Iris Mora", tx.CustomerName)
		assert.Equal(t, ingest.CurrencyUSD, tx.Currency)
		assert.Equal(t, 0.0, tx.SubscriptionAmount)
		assert.Nil(t, tx.ReferenceCode)
	}
}

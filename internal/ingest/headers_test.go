package ingest_test

import (
	"testing"

	"VentaCommSaas/internal/ingest"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain lowercase passes through", input: "fecha", want: "fecha"},
		{name: "uppercase and padding", input: "  VENDEDOR  ", want: "vendedor"},
		{name: "diacritics stripped", input: "Método de Pago", want: "metodo de pago"},
		{name: "accented bolivares", input: "Efectivo Bolívares", want: "efectivo bolivares"},
		{name: "internal runs collapsed", input: "monto   suscripcion", want: "monto suscripcion"},
		{name: "nbsp treated as whitespace", input: "medio de pago", want: "medio de pago"},
		{name: "empty stays empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ingest.NormalizeCell(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ingest.NormalizeCell(got), "normalization must be idempotent")
		})
	}
}

func TestBuildColumnMap(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    ingest.ColumnMap
	}{
		{
			name: "full header row with variant labels",
			headers: []string{
				"FECHA", "Nombre", "Zona", "Gratis", "Plan", "Vendedor",
				"Dinero Recibido WELLCOMM", "Forma de Pago", "Monto Suscripción", "Referencia de Registro",
			},
			want: ingest.ColumnMap{
				ingest.FieldFecha:            0,
				ingest.FieldNombre:           1,
				ingest.FieldZona:             2,
				ingest.FieldGratis:           3,
				ingest.FieldPlan:             4,
				ingest.FieldVendedor:         5,
				ingest.FieldDineroRecibido:   6,
				ingest.FieldMedioPago:        7,
				ingest.FieldMontoSuscripcion: 8,
				ingest.FieldReferencia:       9,
			},
		},
		{
			name:    "unknown headers are not mapped",
			headers: []string{"Fecha", "Observaciones", "Telefono"},
			want:    ingest.ColumnMap{ingest.FieldFecha: 0},
		},
		{
			name:    "duplicated subscription amount keeps the first column",
			headers: []string{"Monto Suscripcion", "Plan", "MONTO SUSCRIPCIÓN"},
			want:    ingest.ColumnMap{ingest.FieldMontoSuscripcion: 0, ingest.FieldPlan: 1},
		},
		{
			name:    "every payment synonym lands on medioPago",
			headers: []string{"Pago"},
			want:    ingest.ColumnMap{ingest.FieldMedioPago: 0},
		},
		{
			name:    "quien recibe is mapped",
			headers: []string{"Quien Recibe"},
			want:    ingest.ColumnMap{ingest.FieldQuienRecibe: 0},
		},
		{
			name:    "empty header row",
			headers: []string{},
			want:    ingest.ColumnMap{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.BuildColumnMap(tt.headers))
		})
	}
}

func TestBuildColumnMapPaymentSynonyms(t *testing.T) {
	for _, label := range []string{"Medio de Pago", "Metodo de Pago", "MÉTODO DE PAGO", "Forma de pago", "Tipo de Pago", "pago"} {
		m := ingest.BuildColumnMap([]string{"Fecha", label})
		assert.Equal(t, 1, m[ingest.FieldMedioPago], "label %q should map to medioPago", label)
	}
}

func TestResolvePaymentColumn(t *testing.T) {
	base := ingest.ColumnMap{ingest.FieldZona: 2, ingest.FieldMedioPago: 5}

	tests := []struct {
		name     string
		dataRows [][]string
		colMap   ingest.ColumnMap
		want     ingest.ColumnMap
	}{
		{
			name: "payment tokens next to zona override the header mapping",
			dataRows: [][]string{
				{"a", "b", "Centro", "ZELLE"},
				{"a", "b", "Norte", "Efectivo"},
			},
			colMap: base,
			want:   ingest.ColumnMap{ingest.FieldZona: 2, ingest.FieldMedioPago: 3},
		},
		{
			name: "accented token still matches",
			dataRows: [][]string{
				{"a", "b", "Centro", "Pago Móvil"},
			},
			colMap: base,
			want:   ingest.ColumnMap{ingest.FieldZona: 2, ingest.FieldMedioPago: 3},
		},
		{
			name: "non payment values leave the map alone",
			dataRows: [][]string{
				{"a", "b", "Centro", "Pedro"},
				{"a", "b", "Norte", "Maria"},
			},
			colMap: base,
			want:   base,
		},
		{
			name:     "no zona column resolved",
			dataRows: [][]string{{"ZELLE"}},
			colMap:   ingest.ColumnMap{ingest.FieldMedioPago: 0},
			want:     ingest.ColumnMap{ingest.FieldMedioPago: 0},
		},
		{
			name: "rows too short for the probe column are skipped",
			dataRows: [][]string{
				{"a", "b", "Centro"},
				{"a", "b", "Norte", "mixto"},
			},
			colMap: base,
			want:   ingest.ColumnMap{ingest.FieldZona: 2, ingest.FieldMedioPago: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.ResolvePaymentColumn(tt.dataRows, tt.colMap))
		})
	}
}

func TestResolvePaymentColumnSamplingBound(t *testing.T) {
	// Token sits on the 11th data row, one past the sampling window.
	rows := make([][]string, 0, 11)
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"a", "b", "Centro", "algo"})
	}
	rows = append(rows, []string{"a", "b", "Centro", "zelle"})

	in := ingest.ColumnMap{ingest.FieldZona: 2}
	out := ingest.ResolvePaymentColumn(rows, in)
	assert.Equal(t, in, out, "rows past the sample window must not trigger the override")

	// Moving the token into the window flips the mapping, and the input map
	// is left untouched.
	rows[4][3] = "efectivo bs"
	out = ingest.ResolvePaymentColumn(rows, in)
	assert.Equal(t, 3, out[ingest.FieldMedioPago])
	_, mutated := in[ingest.FieldMedioPago]
	assert.False(t, mutated, "input map must not be mutated")
}

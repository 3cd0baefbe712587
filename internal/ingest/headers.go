package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field keys resolved from spreadsheet headers. The field layer
// keeps the Spanish names the sheets use so column mapping stays readable
// against the source files.
const (
	FieldFecha            = "fecha"
	FieldNombre           = "nombre"
	FieldZona             = "zona"
	FieldGratis           = "gratis"
	FieldPlan             = "plan"
	FieldVendedor         = "vendedor"
	FieldDineroRecibido   = "dineroRecibido"
	FieldMedioPago        = "medioPago"
	FieldMontoSuscripcion = "montoSuscripcion"
	FieldQuienRecibe      = "quienRecibe"
	FieldReferencia       = "referenciaRegistro"
)

// ColumnMap maps a canonical field key to its column index in the sheet.
// Built once per file and treated as immutable afterwards.
type ColumnMap map[string]int

// headerSynonyms is keyed by the normalized header text. Field teams rename
// columns between months, so the payment-method column in particular accepts
// every label seen in production files.
var headerSynonyms = map[string]string{
	"fecha":                    FieldFecha,
	"nombre":                   FieldNombre,
	"zona":                     FieldZona,
	"gratis":                   FieldGratis,
	"plan":                     FieldPlan,
	"vendedor":                 FieldVendedor,
	"dinero recibido wellcomm": FieldDineroRecibido,
	"medio de pago":            FieldMedioPago,
	"metodo de pago":           FieldMedioPago,
	"forma de pago":            FieldMedioPago,
	"tipo de pago":             FieldMedioPago,
	"pago":                     FieldMedioPago,
	"monto suscripcion":        FieldMontoSuscripcion,
	"quien recibe":             FieldQuienRecibe,
	"referencia de registro":   FieldReferencia,
}

// paymentTokens holds the normalized forms of every payment-method value the
// sheets use. Accented variants (pago móvil, efectivo bolívares) collapse to
// these entries under NormalizeCell.
var paymentTokens = map[string]struct{}{
	"zelle":              {},
	"efectivo":           {},
	"efectivo bs":        {},
	"efectivo bolivares": {},
	"pago movil":         {},
	"mixto":              {},
}

// paymentSampleRows bounds how many data rows the unnamed-column probe reads.
const paymentSampleRows = 10

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeCell canonicalizes header and cell text for matching: diacritics
// stripped, lowercased, trimmed, internal whitespace runs collapsed to a
// single space. Idempotent.
func NormalizeCell(s string) string {
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		s = out
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// BuildColumnMap resolves a header row into a ColumnMap via the synonym
// table. Some files carry a duplicated subscription-amount column; only the
// first occurrence is authoritative, later ones are ignored. Other keys keep
// the last occurrence, matching how the sheets overwrite stale columns.
func BuildColumnMap(headers []string) ColumnMap {
	m := make(ColumnMap, len(headers))
	for idx, h := range headers {
		key, ok := headerSynonyms[NormalizeCell(h)]
		if !ok {
			continue
		}
		if key == FieldMontoSuscripcion {
			if _, seen := m[key]; seen {
				continue
			}
		}
		m[key] = idx
	}
	return m
}

// ResolvePaymentColumn is the second resolution phase. Production sheets
// frequently leave the payment-method column unnamed, immediately to the
// right of the zone column. Sample up to the first paymentSampleRows data
// rows at zonaIndex+1; any cell matching a known payment token overrides a
// header-based medioPago mapping with that column. Returns a new map on
// override, the input map untouched otherwise.
func ResolvePaymentColumn(dataRows [][]string, m ColumnMap) ColumnMap {
	zonaIdx, ok := m[FieldZona]
	if !ok {
		return m
	}
	probe := zonaIdx + 1
	limit := len(dataRows)
	if limit > paymentSampleRows {
		limit = paymentSampleRows
	}
	for i := 0; i < limit; i++ {
		row := dataRows[i]
		if probe >= len(row) {
			continue
		}
		if _, hit := paymentTokens[NormalizeCell(row[probe])]; hit {
			out := make(ColumnMap, len(m)+1)
			for k, v := range m {
				out[k] = v
			}
			out[FieldMedioPago] = probe
			return out
		}
	}
	return m
}

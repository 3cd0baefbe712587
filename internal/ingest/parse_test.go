package ingest_test

import (
	"testing"
	"time"

	"VentaCommSaas/internal/ingest"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{name: "empty", raw: "", ok: false},
		{name: "whitespace only", raw: "   ", ok: false},
		{name: "day first slashes", raw: "15/03/2024", want: date(2024, time.March, 15), ok: true},
		{name: "single digit day and month", raw: "5/3/2024", want: date(2024, time.March, 5), ok: true},
		{name: "dashes", raw: "15-03-2024", want: date(2024, time.March, 15), ok: true},
		{name: "dots", raw: "15.03.2024", want: date(2024, time.March, 15), ok: true},
		{name: "iso", raw: "2024-03-15", want: date(2024, time.March, 15), ok: true},
		{name: "iso with time drops clock", raw: "2024-03-15T10:30:00", want: date(2024, time.March, 15), ok: true},
		{name: "two digit year", raw: "15/3/24", want: date(2024, time.March, 15), ok: true},
		{name: "spaced separators", raw: "15 / 03 / 2024", want: date(2024, time.March, 15), ok: true},
		{name: "excel serial", raw: "45366", want: date(2024, time.March, 15), ok: true},
		{name: "excel serial with time fraction", raw: "45366.75", want: date(2024, time.March, 15), ok: true},
		{name: "excel serial first day", raw: "1", want: date(1900, time.January, 1), ok: true},
		{name: "excel serial before phantom leap day", raw: "59", want: date(1900, time.February, 28), ok: true},
		{name: "excel serial after phantom leap day", raw: "61", want: date(1900, time.March, 1), ok: true},
		{name: "zero serial", raw: "0", ok: false},
		{name: "negative serial", raw: "-3", ok: false},
		{name: "nonexistent calendar day", raw: "31/02/2024", ok: false},
		{name: "month out of range", raw: "15/13/2024", ok: false},
		{name: "two parts only", raw: "15/03", ok: false},
		{name: "words", raw: "sin fecha", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ingest.ParseDate(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "plain integer", raw: "40", want: 40},
		{name: "plain decimal", raw: "12.5", want: 12.5},
		{name: "comma decimal", raw: "25,50", want: 25.5},
		{name: "dollar prefix", raw: "$25", want: 25},
		{name: "trailing label", raw: "25 USD", want: 25},
		{name: "padded", raw: "  78  ", want: 78},
		{name: "comma always decimal point", raw: "1.234,56", want: 1.234},
		{name: "dot thousands comma cents", raw: "1,234.56", want: 1.234},
		{name: "currency label keeps its dot", raw: "Bs. 1.500,00", want: 0.1},
		{name: "minus sign stripped", raw: "-5", want: 5},
		{name: "zero", raw: "0", want: 0},
		{name: "empty", raw: "", want: 0},
		{name: "letters only", raw: "abc", want: 0},
		{name: "separators only", raw: ".,", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ingest.ParseAmount(tc.raw))
		})
	}
}

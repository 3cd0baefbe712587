package ingest

import (
	"strings"
	"time"
)

// InstallationType classifies a transaction for commission purposes.
type InstallationType string

const (
	InstallationFree InstallationType = "FREE"
	InstallationPaid InstallationType = "PAID"
)

// Currency is derived from the payment method, never from symbols in the
// amount cells.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBCV Currency = "BCV"
)

// Transaction is the canonical unit of work produced by ingestion. Names are
// trimmed but keep their original casing for display; dedup matching is
// exact-string on the trimmed values.
type Transaction struct {
	RowNumber          int              `json:"-"`
	TransactionDate    time.Time        `json:"transaction_date"`
	CustomerName       string           `json:"customer_name"`
	SellerName         string           `json:"seller_name"`
	Zone               string           `json:"zone"`
	Plan               string           `json:"plan"`
	PaymentMethod      string           `json:"payment_method"`
	ReferenceCode      *string          `json:"reference_code"`
	InstallationType   InstallationType `json:"installation_type"`
	Currency           Currency         `json:"currency"`
	SubscriptionAmount float64          `json:"subscription_amount"`
}

// DedupKey is the composite identity used to detect re-submitted rows, both
// inside one file and against persisted history. Day granularity only.
func (t Transaction) DedupKey() string {
	return strings.Join([]string{
		t.CustomerName,
		t.Plan,
		t.SellerName,
		t.Zone,
		t.TransactionDate.Format("2006-01-02"),
	}, "|")
}

// DuplicateInfo describes one rejected duplicate row for user review.
// Duplicates usually mean a re-upload, so they are surfaced, not silently
// dropped.
type DuplicateInfo struct {
	RowNumber    int    `json:"row_number"`
	CustomerName string `json:"customer_name"`
	SellerName   string `json:"seller_name"`
	Plan         string `json:"plan"`
	Zone         string `json:"zone"`
	Date         string `json:"date"`
}

// ParseResult summarizes one ingestion run.
// TotalRows == ValidRows + SkippedRows + DuplicateRows always holds.
type ParseResult struct {
	Transactions  []Transaction   `json:"transactions"`
	TotalRows     int             `json:"total_rows"`
	ValidRows     int             `json:"valid_rows"`
	SkippedRows   int             `json:"skipped_rows"`
	DuplicateRows int             `json:"duplicate_rows"`
	Duplicates    []DuplicateInfo `json:"duplicates"`
	Headers       []string        `json:"headers"`
	Columns       ColumnMap       `json:"columns"`
}

// DetectCurrency maps a payment method to the ledger currency. Zelle and
// plain cash are dollar flows; bolivar cash, pago movil and mixed payments
// settle at the BCV rate. Anything unrecognized defaults to USD.
func DetectCurrency(paymentMethod string) Currency {
	switch NormalizeCell(paymentMethod) {
	case "zelle", "efectivo":
		return CurrencyUSD
	case "efectivo bs", "pago movil", "mixto":
		return CurrencyBCV
	}
	return CurrencyUSD
}

// NormalizeRows runs the full row-validation pass over a decoded grid
// (rows[0] is the header row). Rows never raise: every rejection lands in
// exactly one of SkippedRows or DuplicateRows. Grids with fewer than two
// rows produce a zero-count result so callers can render "no data" without
// special cases.
func NormalizeRows(rows [][]string) ParseResult {
	res := ParseResult{
		Transactions: []Transaction{},
		Duplicates:   []DuplicateInfo{},
		Headers:      []string{},
		Columns:      ColumnMap{},
	}
	if len(rows) < 2 {
		return res
	}

	headers := rows[0]
	dataRows := rows[1:]
	cols := BuildColumnMap(headers)
	cols = ResolvePaymentColumn(dataRows, cols)
	res.Headers = append(res.Headers, headers...)
	res.Columns = cols

	cell := func(row []string, key string) string {
		idx, ok := cols[key]
		if !ok || idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	seen := make(map[string]struct{}, len(dataRows))
	for i, row := range dataRows {
		res.TotalRows++
		sheetRow := i + 2 // headers live on sheet row 1

		if strings.ToUpper(strings.TrimSpace(cell(row, FieldDineroRecibido))) != "PAGADO" {
			res.SkippedRows++
			continue
		}
		seller := strings.TrimSpace(cell(row, FieldVendedor))
		if seller == "" {
			res.SkippedRows++
			continue
		}
		date, ok := ParseDate(cell(row, FieldFecha))
		if !ok {
			res.SkippedRows++
			continue
		}

		tx := Transaction{
			RowNumber:       sheetRow,
			TransactionDate: date,
			CustomerName:    strings.TrimSpace(cell(row, FieldNombre)),
			SellerName:      seller,
			Zone:            strings.TrimSpace(cell(row, FieldZona)),
			Plan:            strings.TrimSpace(cell(row, FieldPlan)),
		}
		key := tx.DedupKey()
		if _, dup := seen[key]; dup {
			res.DuplicateRows++
			res.Duplicates = append(res.Duplicates, DuplicateInfo{
				RowNumber:    sheetRow,
				CustomerName: tx.CustomerName,
				SellerName:   tx.SellerName,
				Plan:         tx.Plan,
				Zone:         tx.Zone,
				Date:         date.Format("2006-01-02"),
			})
			continue
		}

		if ref := strings.TrimSpace(cell(row, FieldReferencia)); ref != "" {
			tx.ReferenceCode = &ref
		}
		tx.InstallationType = InstallationPaid
		if strings.ToUpper(strings.TrimSpace(cell(row, FieldGratis))) == "GRATIS" {
			tx.InstallationType = InstallationFree
		}
		tx.PaymentMethod = strings.TrimSpace(cell(row, FieldMedioPago))
		tx.Currency = DetectCurrency(tx.PaymentMethod)
		tx.SubscriptionAmount = ParseAmount(cell(row, FieldMontoSuscripcion))

		seen[key] = struct{}{}
		res.Transactions = append(res.Transactions, tx)
		res.ValidRows++
	}
	return res
}

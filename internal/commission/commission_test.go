package commission_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VentaCommSaas/internal/commission"
	"VentaCommSaas/internal/ingest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestResolveDefaults(t *testing.T) {
	cfg := commission.DefaultConfig()

	paid := commission.Resolve(ingest.InstallationPaid, dec("100"), nil, cfg)
	assertDec(t, "10", paid.Seller)
	assertDec(t, "70", paid.Installer)

	free := commission.Resolve(ingest.InstallationFree, dec("40"), nil, cfg)
	assertDec(t, "8", free.Seller)
	assertDec(t, "20", free.Installer)
}

func TestResolveWithRule(t *testing.T) {
	rule := &commission.Rule{
		SellerFree:    commission.Term{Kind: commission.Fixed, Value: dec("12")},
		SellerPaid:    commission.Term{Kind: commission.Percentage, Value: dec("0.25")},
		InstallerFree: commission.Term{Kind: commission.Percentage, Value: dec("0.5")},
		InstallerPaid: commission.Term{Kind: commission.Fixed, Value: dec("30")},
	}
	cfg := commission.DefaultConfig()

	free := commission.Resolve(ingest.InstallationFree, dec("40"), rule, cfg)
	assertDec(t, "12", free.Seller)
	assertDec(t, "20", free.Installer)

	paid := commission.Resolve(ingest.InstallationPaid, dec("80"), rule, cfg)
	assertDec(t, "20", paid.Seller)
	assertDec(t, "30", paid.Installer)
}

func TestResolveRuleWinsOverConfig(t *testing.T) {
	rule := &commission.Rule{
		SellerPaid:    commission.Term{Kind: commission.Fixed, Value: dec("99")},
		InstallerPaid: commission.Term{Kind: commission.Fixed, Value: dec("1")},
	}
	got := commission.Resolve(ingest.InstallationPaid, dec("100"), rule, commission.DefaultConfig())
	assertDec(t, "99", got.Seller)
	assertDec(t, "1", got.Installer)
}

func TestTermScaling(t *testing.T) {
	fixed := commission.Term{Kind: commission.Fixed, Value: dec("15")}
	assertDec(t, "15", fixed.Amount(dec("10")))
	assertDec(t, "15", fixed.Amount(dec("1000")))

	pct := commission.Term{Kind: commission.Percentage, Value: dec("0.3")}
	assertDec(t, "12", pct.Amount(dec("40")))
	assertDec(t, "24", pct.Amount(dec("80")))
	assertDec(t, "0", pct.Amount(dec("0")))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw  string
		want commission.Kind
		ok   bool
	}{
		{raw: "FIXED", want: commission.Fixed, ok: true},
		{raw: "fixed", want: commission.Fixed, ok: true},
		{raw: " Percentage ", want: commission.Percentage, ok: true},
		{raw: "flat", ok: false},
		{raw: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := commission.ParseKind(tc.raw)
			if !tc.ok {
				assert.ErrorIs(t, err, commission.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindJSONRoundTrip(t *testing.T) {
	in := commission.Term{Kind: commission.Percentage, Value: dec("0.5")}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PERCENTAGE","value":"0.5"}`, string(raw))

	var out commission.Term
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, commission.Percentage, out.Kind)
	assertDec(t, "0.5", out.Value)

	var bad commission.Term
	err = json.Unmarshal([]byte(`{"type":"flat","value":"1"}`), &bad)
	assert.ErrorIs(t, err, commission.ErrUnknownKind)
}

func TestKindScanValue(t *testing.T) {
	v, err := commission.Percentage.Value()
	require.NoError(t, err)
	assert.Equal(t, "PERCENTAGE", v)

	var k commission.Kind
	require.NoError(t, k.Scan("FIXED"))
	assert.Equal(t, commission.Fixed, k)
	require.NoError(t, k.Scan([]byte("percentage")))
	assert.Equal(t, commission.Percentage, k)
	assert.Error(t, k.Scan(42))
}

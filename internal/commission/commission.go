// Package commission computes seller and installer payouts for a sale.
// Amounts are never persisted: reports call Resolve with the current rule and
// config so retroactive edits rewrite history on the next read.
package commission

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"VentaCommSaas/internal/ingest"
)

// Kind discriminates how a Term turns into money: a flat amount or a share
// of the plan price.
type Kind int

const (
	Fixed Kind = iota
	Percentage
)

var ErrUnknownKind = errors.New("commission: unknown kind")

func (k Kind) String() string {
	switch k {
	case Fixed:
		return "FIXED"
	case Percentage:
		return "PERCENTAGE"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the stored spellings case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIXED":
		return Fixed, nil
	case "PERCENTAGE":
		return Percentage, nil
	}
	return Fixed, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value and Scan store the Kind as its text form in commissionrules columns.
func (k Kind) Value() (driver.Value, error) {
	return k.String(), nil
}

func (k *Kind) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	}
	return fmt.Errorf("commission: cannot scan %T into Kind", src)
}

// Term is one commission formula: a Kind plus its numeric value. For Fixed
// the value is the payout; for Percentage it is the fraction of the plan
// price (0.5 means half, not fifty).
type Term struct {
	Kind  Kind            `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Amount applies the term to a plan price.
func (t Term) Amount(planPrice decimal.Decimal) decimal.Decimal {
	if t.Kind == Percentage {
		return t.Value.Mul(planPrice)
	}
	return t.Value
}

// Rule is a per-seller override of the global scheme. Unlike the global
// config, a rule may make either party fixed or percentage in either tier.
// A seller has at most one rule; absence means the global config applies.
type Rule struct {
	SellerFree    Term `json:"seller_free"`
	SellerPaid    Term `json:"seller_paid"`
	InstallerFree Term `json:"installer_free"`
	InstallerPaid Term `json:"installer_paid"`
}

func (r Rule) sellerTerm(t ingest.InstallationType) Term {
	if t == ingest.InstallationFree {
		return r.SellerFree
	}
	return r.SellerPaid
}

func (r Rule) installerTerm(t ingest.InstallationType) Term {
	if t == ingest.InstallationFree {
		return r.InstallerFree
	}
	return r.InstallerPaid
}

// Config is the global fallback scheme. Sellers always get a flat amount,
// the installer always gets a share of the plan price. That asymmetry is
// the scheme itself, not a simplification to be cleaned up.
type Config struct {
	SellerFreeAmount  decimal.Decimal `json:"seller_free_amount"`
	SellerPaidAmount  decimal.Decimal `json:"seller_paid_amount"`
	InstallerFreeRate decimal.Decimal `json:"installer_free_rate"`
	InstallerPaidRate decimal.Decimal `json:"installer_paid_rate"`
}

// DefaultConfig seeds the singleton config row on first access.
func DefaultConfig() Config {
	return Config{
		SellerFreeAmount:  decimal.NewFromInt(8),
		SellerPaidAmount:  decimal.NewFromInt(10),
		InstallerFreeRate: decimal.RequireFromString("0.5"),
		InstallerPaidRate: decimal.RequireFromString("0.7"),
	}
}

// Breakdown is the resolved payout pair for one transaction.
type Breakdown struct {
	Seller    decimal.Decimal `json:"seller_commission"`
	Installer decimal.Decimal `json:"installer_commission"`
}

// Resolve computes both payouts for a transaction. A present rule wins
// outright over the config, field by field, even when its numbers match the
// defaults. Pure and total: no error paths, safe for concurrent use.
func Resolve(installType ingest.InstallationType, planPrice decimal.Decimal, rule *Rule, cfg Config) Breakdown {
	if rule != nil {
		return Breakdown{
			Seller:    rule.sellerTerm(installType).Amount(planPrice),
			Installer: rule.installerTerm(installType).Amount(planPrice),
		}
	}
	if installType == ingest.InstallationFree {
		return Breakdown{
			Seller:    cfg.SellerFreeAmount,
			Installer: planPrice.Mul(cfg.InstallerFreeRate),
		}
	}
	return Breakdown{
		Seller:    cfg.SellerPaidAmount,
		Installer: planPrice.Mul(cfg.InstallerPaidRate),
	}
}

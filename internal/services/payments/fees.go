package payments

import (
	"fmt"
	"strings"

	"github.com/govalues/decimal"
)

var hundred = decimal.MustNew(100, 0)

// Fee is the computed split of a succeeded charge, in minor units.
type Fee struct {
	Fee       int64
	NetAmount int64
}

// ComputeFee applies provider percentage + provider fixed fee + platform
// percentage to amount. Percentages are decimal strings in percent ("2.9").
// The sum is rounded half to even once, at the end.
func ComputeFee(amount int64, providerPct string, fixedFee int64, platformPct string) (Fee, error) {
	amt, err := decimal.New(amount, 0)
	if err != nil {
		return Fee{}, err
	}
	pp, err := parsePercent(providerPct)
	if err != nil {
		return Fee{}, fmt.Errorf("provider percentage: %w", err)
	}
	pl, err := parsePercent(platformPct)
	if err != nil {
		return Fee{}, fmt.Errorf("platform percentage: %w", err)
	}
	fixed, err := decimal.New(fixedFee, 0)
	if err != nil {
		return Fee{}, err
	}

	rate, err := pp.Add(pl)
	if err != nil {
		return Fee{}, err
	}
	variable, err := amt.Mul(rate)
	if err != nil {
		return Fee{}, err
	}
	if variable, err = variable.Quo(hundred); err != nil {
		return Fee{}, err
	}
	total, err := variable.Add(fixed)
	if err != nil {
		return Fee{}, err
	}
	whole, _, ok := total.Round(0).Int64(0)
	if !ok {
		return Fee{}, fmt.Errorf("fee %s overflows int64", total)
	}
	return Fee{Fee: whole, NetAmount: amount - whole}, nil
}

func parsePercent(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNeg() {
		return decimal.Decimal{}, fmt.Errorf("negative percentage %q", s)
	}
	return d, nil
}

// ValidPercent reports whether s parses as a non-negative percentage.
func ValidPercent(s string) bool {
	_, err := parsePercent(s)
	return err == nil
}

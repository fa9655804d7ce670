package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals is the monetary summary of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals computes subtotal, tax and total for the given items and tax
// rate. It is a pure function of its inputs.
//
// The sum of line totals is kept exact; each reported figure is rounded to 2
// decimal places exactly once, half up, at the end. Rounding the running sum
// or the individual lines would accumulate drift.
//
// The tax rate is a fractional multiplier (0.08 means 8%). Values above 1
// are accepted verbatim as fractions; no normalization is applied. This is a
// fixed policy: a caller passing 8 gets an 800% tax.
func ComputeTotals(items []Item, taxRate decimal.Decimal) (Totals, error) {
	if taxRate.IsNegative() {
		return Totals{}, fmt.Errorf("tax rate %s must not be negative: %w", taxRate, ErrInvalidArgument)
	}

	subtotal := decimal.Zero
	for i, it := range items {
		if err := validateItem(it); err != nil {
			return Totals{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		subtotal = subtotal.Add(it.Total())
	}

	tax := subtotal.Mul(taxRate)

	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Total:    subtotal.Add(tax).Round(2),
	}, nil
}

// validateItem rejects invalid line items. Negative values are an error, not
// something to clamp.
func validateItem(it Item) error {
	switch {
	case it.Description == "":
		return fmt.Errorf("description is required: %w", ErrInvalidArgument)
	case it.Quantity.IsNegative():
		return fmt.Errorf("quantity %s must not be negative: %w", it.Quantity, ErrInvalidArgument)
	case it.Rate.IsNegative():
		return fmt.Errorf("rate %s must not be negative: %w", it.Rate, ErrInvalidArgument)
	}
	return nil
}

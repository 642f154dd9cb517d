package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
)

var three = decimal.NewFromInt(3)

// normalizeEstate clamps deductions and caps the bequest at a third of what
// remains after funeral costs and debts. The capped bequest is truncated to
// the currency's minor unit so the net estate stays representable.
func (c *calculation) normalizeEstate() []error {
	var causes []error

	currency := strings.ToUpper(strings.TrimSpace(c.estate.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}

	total := nonNegative(c.estate.Total)
	if !total.IsPositive() {
		c.errs = append(c.errs, "estate total must be greater than zero")
		causes = append(causes, ErrNonPositiveEstate)
	}

	funeral := decimal.Min(nonNegative(c.estate.Funeral), total)
	debts := decimal.Min(nonNegative(c.estate.Debts), total.Sub(funeral))
	remaining := total.Sub(funeral).Sub(debts)

	will := nonNegative(c.estate.Will)
	maxWill := remaining.Div(three).Truncate(minorUnitScale(currency))
	if will.GreaterThan(maxWill) {
		c.warn("bequest %s exceeds one third of the estate after funeral costs and debts (%s); reduced to %s",
			will, remaining.Div(three).Round(minorUnitScale(currency)), maxWill)
		will = maxWill
	}

	c.estate = models.Estate{
		Total:    total,
		Funeral:  funeral,
		Debts:    debts,
		Will:     will,
		Currency: currency,
	}
	c.net = c.estate.Net()
	return causes
}

// normalizeHeirs clamps counts to [0, max] and resolves a husband and wife
// supplied together according to the spouse conflict policy.
func (c *calculation) normalizeHeirs() []error {
	var causes []error

	var invalid []int
	for h := range c.heirs {
		if !h.Valid() {
			invalid = append(invalid, int(h))
		}
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		for _, id := range invalid {
			c.errs = append(c.errs, fmt.Sprintf("unknown heir category %d", id))
		}
		causes = append(causes, ErrInvalidHeir)
	}

	normalized := make(models.HeirCounts, len(c.heirs))
	for _, h := range fiqh.AllHeirs() {
		n := max(c.heirs[h], 0)
		if limit := h.Max(); limit != fiqh.Unbounded && n > limit {
			c.warn("%s count %d exceeds the maximum of %d; using %d", h, n, limit, limit)
			n = limit
		}
		if n > 0 {
			normalized[h] = n
		}
	}

	if normalized.Has(fiqh.Husband) && normalized.Has(fiqh.Wife) {
		if c.spouseConflict == SpouseConflictCorrect {
			c.warn("husband and wife cannot both be present for one deceased; wife count ignored")
		} else {
			c.errs = append(c.errs, "husband and wife cannot both be present for one deceased")
			causes = append(causes, ErrSpouseConflict)
		}
		delete(normalized, fiqh.Wife)
	}

	c.heirs = normalized
	c.input = normalized.Clone()
	return causes
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

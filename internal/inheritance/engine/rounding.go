package engine

import (
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"faraid/internal/inheritance/models"
)

const defaultMinorUnitScale = 2

// minorUnitScale returns the number of decimal places of the currency's minor
// unit, e.g. 2 for SAR, 0 for JPY, 3 for KWD. Unknown codes use 2.
func minorUnitScale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return defaultMinorUnitScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// reconcileAmounts runs stage 10. Each line's amount is rounded to the minor
// unit; any discrepancy against the net estate is handed out one unit at a
// time to the largest lines first.
func (c *calculation) reconcileAmounts() {
	kept := make([]*models.Share, 0, len(c.shares))
	for _, s := range c.shares {
		if !s.Fraction.IsZero() {
			kept = append(kept, s)
		}
	}
	c.shares = kept
	if len(c.shares) == 0 {
		return
	}

	scale := minorUnitScale(c.estate.Currency)
	unit := decimal.New(1, -scale)

	total := decimal.Zero
	for _, s := range c.shares {
		s.ComputeAmount(c.net)
		s.SetAmount(s.Amount.Round(scale))
		total = total.Add(s.Amount)
	}

	diff := c.net.Sub(total)
	if diff.Abs().GreaterThanOrEqual(unit) {
		delta := unit
		if diff.IsNegative() {
			delta = unit.Neg()
		}

		order := make([]int, len(c.shares))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return c.shares[b].Amount.Cmp(c.shares[a].Amount)
		})

		units := diff.Abs().Div(unit).Round(0).IntPart()
		limit := int64(len(c.shares) * 10)
		for i := int64(0); i < units && i < limit; i++ {
			s := c.shares[order[i%int64(len(order))]]
			s.SetAmount(s.Amount.Add(delta))
		}
		c.stepf(models.LevelInfo, "Rounding", "%s distributed in minor units to the largest shares", diff)
	}

	for _, s := range c.shares {
		s.AmountPerPerson = s.AmountPerPerson.Round(scale)
	}
	c.setUnits()
}

package engine

import (
	"fmt"

	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

// applyAwl runs stage 6. The asl is the LCM of the fixed-share denominators;
// when the fixed shares claim more units than the asl, every share is rescaled
// to units over their sum.
func (c *calculation) applyAwl() {
	fractions := make([]fraction.Fraction, 0, len(c.shares))
	for _, s := range c.shares {
		fractions = append(fractions, s.Fraction)
	}
	asl := fraction.LCMOfDenominators(fractions...)
	c.asl, c.finalBase = asl, asl

	var total int64
	for _, s := range c.shares {
		if s.Fraction.IsZero() {
			continue
		}
		s.Units = s.Fraction.Num() * (asl / s.Fraction.Den())
		total += s.Units
	}
	if total <= asl {
		return
	}

	for _, s := range c.shares {
		s.OriginalFraction = s.Fraction
		s.SetFraction(fraction.MustNew(s.Units, total))
	}
	ratio := fraction.MustNew(asl, total)
	c.awlApplied = true
	c.awlRatio = &ratio
	c.finalBase = total

	c.special(models.SpecialCase{
		Type:        models.CaseAwl,
		Name:        "al-Awl",
		Description: fmt.Sprintf("the base rose from %d to %d", asl, total),
		Reference:   "Sharh al-Zurqani 4/380",
	})
	c.stepf(models.LevelWarning, "Awl", "fixed shares total %d units against a base of %d; the base rises to %d", total, asl, total)
}

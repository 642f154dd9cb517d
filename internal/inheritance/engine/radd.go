package engine

import (
	"fmt"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

// applyRadd runs stage 8: a positive remainder with no residuary heir returns
// to the fixed-share holders in proportion to their shares.
func (c *calculation) applyRadd() error {
	rem := c.remainder()
	if !rem.IsPositive() || c.residuaryFound {
		return nil
	}

	eligible := c.raddEligible()
	if len(eligible) == 0 {
		return nil
	}

	total := fraction.Zero
	for _, s := range eligible {
		total = total.Add(s.Fraction)
	}
	if total.IsZero() {
		return nil
	}

	for _, s := range eligible {
		portion, err := rem.Mul(s.Fraction).Div(total)
		if err != nil {
			return fmt.Errorf("radd portion: %w", err)
		}
		s.AddFraction(portion)
		if s.Classification == models.ClassFixed {
			s.Classification = models.ClassReturn
		}
		s.Reason += " + return of surplus"
	}

	c.raddApplied = true
	c.special(models.SpecialCase{
		Type:        models.CaseRadd,
		Name:        "al-Radd",
		Description: "the surplus returns to the fixed-share heirs in proportion to their shares",
		Reference:   "Sharh al-Zurqani 4/390",
	})
	c.stepf(models.LevelSuccess, "Radd", "%s returned to %d fixed-share line(s)", rem, len(eligible))
	return nil
}

// raddEligible lists the fixed-share lines that take part in radd. Spouses take
// part when the school allows it, or when the spouse is the only heir left and
// no blood relative could take the surplus instead.
func (c *calculation) raddEligible() []*models.Share {
	var eligible, spouses []*models.Share
	for _, s := range c.shares {
		if s.Classification != models.ClassFixed || s.Fraction.IsZero() {
			continue
		}
		if isSpouseKey(s.Key) {
			spouses = append(spouses, s)
			if !c.cfg.Rules.RaddToSpouse {
				continue
			}
		}
		eligible = append(eligible, s)
	}

	if len(eligible) == 0 && len(spouses) == 1 && len(c.shares) == 1 && !c.bloodRelativeWaiting() {
		c.note("%s: the surplus returns to the spouse as the only remaining heir", c.cfg.Name)
		return spouses
	}
	return eligible
}

func (c *calculation) bloodRelativeWaiting() bool {
	if !c.cfg.Rules.BloodRelativesEnabled {
		return false
	}
	for _, h := range fiqh.AllHeirs() {
		if h.BloodClass() > 0 && c.has(h) {
			return true
		}
	}
	return false
}

func isSpouseKey(k fiqh.ShareKey) bool {
	return k == fiqh.Husband.ShareKey() || k == fiqh.Wife.ShareKey()
}

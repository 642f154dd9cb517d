package engine

import (
	"fmt"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

const bloodClasses = 4

// distributeRemainder runs stage 9. Any remainder left after radd goes to the
// nearest class of blood relatives, or to the public treasury in a school that
// does not let blood relatives inherit.
func (c *calculation) distributeRemainder() error {
	rem := c.remainder()
	if !rem.IsPositive() {
		return nil
	}

	if !c.cfg.Rules.BloodRelativesEnabled {
		if c.cfg.ID != fiqh.Maliki {
			c.warn("%s of the estate has no entitled heir", rem)
			return nil
		}
		c.escheat(rem)
		return nil
	}

	class := c.nearestBloodClass()
	if len(class) == 0 {
		c.warn("%s of the estate has no entitled heir", rem)
		return nil
	}

	heads := 0
	for _, h := range class {
		heads += c.count(h)
	}
	for _, h := range class {
		part, err := fraction.New(int64(c.count(h)), int64(heads))
		if err != nil {
			return fmt.Errorf("blood relative portion: %w", err)
		}
		c.addShare(models.NewShare(h.ShareKey(), models.ClassBloodRelative, c.count(h), rem.Mul(part),
			fmt.Sprintf("blood relative, class %d: remainder after the fixed shares", h.BloodClass())))
	}

	c.bloodApplied = true
	c.special(models.SpecialCase{
		Type:        models.CaseBloodRelatives,
		Name:        "Dhawu al-Arham",
		Description: "blood relatives inherit in the absence of residuary heirs",
		Reference:   "Sharh al-Zurqani 4/500",
	})
	c.stepf(models.LevelInfo, "Blood relatives", "%s goes to class %d blood relatives", rem, class[0].BloodClass())
	return nil
}

// nearestBloodClass returns the present members of the lowest non-empty class.
func (c *calculation) nearestBloodClass() []fiqh.Heir {
	var classes [bloodClasses + 1][]fiqh.Heir
	for _, h := range fiqh.AllHeirs() {
		if k := h.BloodClass(); k > 0 && c.has(h) {
			classes[k] = append(classes[k], h)
		}
	}
	for k := 1; k <= bloodClasses; k++ {
		if len(classes[k]) > 0 {
			return classes[k]
		}
	}
	return nil
}

func (c *calculation) escheat(rem fraction.Fraction) {
	for _, h := range fiqh.AllHeirs() {
		if h.BloodClass() > 0 {
			c.block(h, string(fiqh.KeyTreasury), fmt.Sprintf("blood relatives do not inherit in the %s school", c.cfg.Name))
		}
	}
	c.addShare(models.NewShare(fiqh.KeyTreasury, models.ClassTreasury, 1, rem,
		fmt.Sprintf("remainder to the public treasury (%s)", c.cfg.Name)))
	c.special(models.SpecialCase{
		Type:        models.CaseTreasury,
		Name:        "Bayt al-Mal",
		Description: "the remainder escheats to the public treasury",
	})
	c.note("%s: blood relatives do not inherit and the remainder goes to the public treasury", c.cfg.Name)
	c.stepf(models.LevelInfo, "Public treasury", "%s goes to the public treasury", rem)
}

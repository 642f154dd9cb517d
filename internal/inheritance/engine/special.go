package engine

import (
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

var (
	caseUmariyyah = models.SpecialCase{
		Type:        models.CaseUmariyyah,
		Name:        "al-Umariyyah",
		Description: "the mother takes a third of what remains after the spouse's share",
		Reference:   "Sahih al-Bukhari 6732",
	}
	caseMusharraka = models.SpecialCase{
		Type:        models.CaseMusharraka,
		Name:        "al-Musharraka (al-Himariyya)",
		Description: "full siblings share the maternal siblings' third equally per head",
		Reference:   "Sharh al-Zurqani 4/422",
	}
	caseAkdariyya = models.SpecialCase{
		Type:        models.CaseAkdariyya,
		Name:        "al-Akdariyya (al-Gharra)",
		Description: "the sister is given a share beside the grandfather, then their shares are pooled and divided",
		Reference:   "Sharh al-Zurqani 4/400",
	}
)

// applyClosedForm runs stage 3. It reports whether a closed-form case replaced
// stages 4 to 7.
func (c *calculation) applyClosedForm() bool {
	rules := c.cfg.Rules
	switch {
	case rules.MusharrakaEnabled && c.isMusharraka():
		c.musharraka()
		return true
	case rules.AkdariyyaEnabled && c.isAkdariyya():
		c.akdariyya()
		return true
	}

	if c.isUmariyyah() {
		c.umariyyah = true
		c.special(caseUmariyyah)
		c.step("al-Umariyyah", "spouse with both parents: the mother's share is a third of the remainder", models.LevelInfo)
	}
	return false
}

func (c *calculation) isMusharraka() bool {
	return c.has(fiqh.Husband) &&
		c.has(fiqh.Mother, fiqh.GrandmotherMother) &&
		c.maternalSiblings() >= 2 &&
		c.fullSiblings() > 0 &&
		!c.hasDescendants() &&
		!c.hasMaleAscendant()
}

func (c *calculation) isAkdariyya() bool {
	return c.has(fiqh.Husband) &&
		c.has(fiqh.Mother) &&
		c.has(fiqh.Grandfather) &&
		c.has(fiqh.FullSister) &&
		!c.hasDescendants() &&
		!c.has(fiqh.Father) &&
		!c.has(fiqh.FullBrother)
}

func (c *calculation) isUmariyyah() bool {
	return c.hasSpouse() &&
		c.has(fiqh.Father) &&
		c.has(fiqh.Mother) &&
		!c.hasDescendants() &&
		c.fullSiblings()+c.paternalSiblings()+c.maternalSiblings() == 0 &&
		!c.has(fiqh.Grandfather)
}

func (c *calculation) musharraka() {
	c.special(caseMusharraka)
	c.step("al-Musharraka", "full and maternal siblings share one third equally", models.LevelWarning)

	c.addShare(models.NewShare(fiqh.Husband.ShareKey(), models.ClassFixed, 1, fraction.Half, "1/2: no inheriting descendant"))

	participants := []fiqh.Heir{fiqh.Husband, fiqh.MaternalBrother, fiqh.MaternalSister, fiqh.FullBrother, fiqh.FullSister}
	if c.has(fiqh.Mother) {
		c.addShare(models.NewShare(fiqh.Mother.ShareKey(), models.ClassFixed, 1, fraction.Sixth, "1/6: siblings present"))
		c.block(fiqh.GrandmotherMother, fiqh.Mother.String(), "the maternal grandmother is excluded by the mother")
		c.block(fiqh.GrandmotherFather, fiqh.Mother.String(), "the paternal grandmother is excluded by the mother")
		participants = append(participants, fiqh.Mother)
	} else {
		c.addShare(models.NewShare(fiqh.GrandmotherMother.ShareKey(), models.ClassFixed, 1, fraction.Sixth, "1/6"))
		participants = append(participants, fiqh.GrandmotherMother)
	}

	siblings := c.maternalSiblings() + c.fullSiblings()
	c.addShare(models.NewShare(fiqh.KeySharedSiblings, models.ClassFixed, siblings, fraction.Third, "1/3 shared equally per head"))

	c.excludeOthers(participants, string(models.CaseMusharraka))
	c.asl, c.finalBase = 6, 6
	c.setUnits()
}

func (c *calculation) akdariyya() {
	c.special(caseAkdariyya)
	c.step("al-Akdariyya", "fixed distribution over 27", models.LevelWarning)

	lines := []struct {
		heir     fiqh.Heir
		class    models.Classification
		units    int64
		original fraction.Fraction
		reason   string
	}{
		{fiqh.Husband, models.ClassFixed, 9, fraction.Half, "1/2 = 9/27"},
		{fiqh.Mother, models.ClassFixed, 6, fraction.Third, "1/3 = 6/27"},
		{fiqh.Grandfather, models.ClassFixedResiduary, 8, fraction.Sixth, "1/6 then pooled with the sister"},
		{fiqh.FullSister, models.ClassFixedResiduary, 4, fraction.Half, "1/2 then pooled with the grandfather"},
	}
	for _, l := range lines {
		s := models.NewShare(l.heir.ShareKey(), l.class, c.count(l.heir), fraction.MustNew(l.units, 27), l.reason)
		s.OriginalFraction = l.original
		s.Units = l.units
		c.addShare(s)
	}

	c.block(fiqh.GrandmotherMother, fiqh.Mother.String(), "the maternal grandmother is excluded by the mother")
	c.block(fiqh.GrandmotherFather, fiqh.Mother.String(), "the paternal grandmother is excluded by the mother")
	c.excludeOthers([]fiqh.Heir{fiqh.Husband, fiqh.Mother, fiqh.Grandfather, fiqh.FullSister}, string(models.CaseAkdariyya))

	ratio := fraction.MustNew(6, 27)
	c.awlApplied = true
	c.awlRatio = &ratio
	c.asl, c.finalBase = 6, 27
}

// excludeOthers logs every present heir outside participants as excluded by
// the named closed-form case.
func (c *calculation) excludeOthers(participants []fiqh.Heir, by string) {
	keep := make(map[fiqh.Heir]bool, len(participants))
	for _, h := range participants {
		keep[h] = true
	}
	for _, h := range fiqh.AllHeirs() {
		if keep[h] {
			continue
		}
		c.block(h, by, h.Name()+" does not inherit in "+by)
	}
}

// setUnits records each line's numerator over the final base, or zero when
// the line is not a whole number of units.
func (c *calculation) setUnits() {
	base := fraction.FromInt(c.finalBase)
	for _, s := range c.shares {
		u := s.Fraction.Mul(base)
		s.Units = 0
		if u.Den() == 1 {
			s.Units = u.Num()
		}
	}
}

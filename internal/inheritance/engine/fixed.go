package engine

import (
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

// assignFixedShares runs stage 5 over the roster left by hijab.
func (c *calculation) assignFixedShares() {
	c.step("Fixed shares", "assigning fixed shares to their holders", models.LevelInfo)

	c.fixSpouses()
	c.fixMother()
	c.fixFather()
	c.fixGrandfather()
	c.fixGrandmothers()
	c.fixDaughters()
	c.fixGranddaughters()
	c.fixFullSisters()
	c.fixPaternalSisters()
	c.fixMaternalSiblings()
}

func (c *calculation) fixed(key fiqh.ShareKey, count int, f fraction.Fraction, reason string) {
	c.addShare(models.NewShare(key, models.ClassFixed, count, f, reason))
}

func (c *calculation) fixSpouses() {
	desc := c.hasDescendants()
	if c.has(fiqh.Husband) {
		if desc {
			c.fixed(fiqh.Husband.ShareKey(), 1, fraction.Quarter, "1/4: inheriting descendant present")
		} else {
			c.fixed(fiqh.Husband.ShareKey(), 1, fraction.Half, "1/2: no inheriting descendant")
		}
	}
	if n := c.count(fiqh.Wife); n > 0 {
		if desc {
			c.fixed(fiqh.Wife.ShareKey(), n, fraction.Eighth, "1/8 shared: inheriting descendant present")
		} else {
			c.fixed(fiqh.Wife.ShareKey(), n, fraction.Quarter, "1/4 shared: no inheriting descendant")
		}
	}
}

// fixMother counts siblings on the roster as supplied: excluded siblings
// still reduce the mother to a sixth.
func (c *calculation) fixMother() {
	if !c.has(fiqh.Mother) {
		return
	}
	key := fiqh.Mother.ShareKey()
	siblings := c.input.Sum(fiqh.FullBrother, fiqh.FullSister, fiqh.PaternalBrother, fiqh.PaternalSister, fiqh.MaternalBrother, fiqh.MaternalSister)

	switch {
	case c.umariyyah && c.has(fiqh.Husband):
		c.fixed(key, 1, fraction.Sixth, "a third of the remainder after the husband (first Umariyyah)")
	case c.umariyyah:
		c.fixed(key, 1, fraction.Quarter, "a third of the remainder after the wife (second Umariyyah)")
	case c.hasDescendants():
		c.fixed(key, 1, fraction.Sixth, "1/6: inheriting descendant present")
	case siblings >= 2:
		c.fixed(key, 1, fraction.Sixth, "1/6: two or more siblings present")
	default:
		c.fixed(key, 1, fraction.Third, "1/3: no inheriting descendant and fewer than two siblings")
	}
}

func (c *calculation) fixFather() {
	if !c.has(fiqh.Father) {
		return
	}
	switch {
	case c.hasMaleDescendants():
		c.fixed(fiqh.Father.ShareKey(), 1, fraction.Sixth, "1/6: male descendant present")
	case c.hasFemaleDescendants():
		c.fixed(fiqh.Father.ShareKey(), 1, fraction.Sixth, "1/6 with the residue: only female descendants present")
	}
}

func (c *calculation) fixGrandfather() {
	if !c.has(fiqh.Grandfather) || c.has(fiqh.Father) {
		return
	}
	switch {
	case c.hasMaleDescendants():
		c.fixed(fiqh.Grandfather.ShareKey(), 1, fraction.Sixth, "1/6: male descendant present")
	case c.hasFemaleDescendants():
		c.fixed(fiqh.Grandfather.ShareKey(), 1, fraction.Sixth, "1/6 with the residue: only female descendants present")
	case c.fullSiblings()+c.paternalSiblings() > 0 && c.grandfatherShares():
		c.note("%s: the grandfather shares the residue with the siblings", c.cfg.Name)
	}
}

func (c *calculation) fixGrandmothers() {
	n := c.count(fiqh.GrandmotherMother) + c.count(fiqh.GrandmotherFather)
	if n == 0 {
		return
	}
	s := models.NewShare(fiqh.KeyGrandmothers, models.ClassFixed, n, fraction.Sixth, "1/6")
	if n > 1 {
		s.Reason = "1/6 shared"
	} else if h, ok := c.firstPresent(fiqh.GrandmotherMother, fiqh.GrandmotherFather); ok {
		s.Name = h.Name()
	}
	c.addShare(s)
}

func (c *calculation) fixDaughters() {
	n := c.count(fiqh.Daughter)
	if n == 0 || c.has(fiqh.Son) {
		return
	}
	if n == 1 {
		c.fixed(fiqh.Daughter.ShareKey(), 1, fraction.Half, "1/2: a single daughter")
		return
	}
	c.fixed(fiqh.Daughter.ShareKey(), n, fraction.TwoThirds, "2/3: two or more daughters")
}

func (c *calculation) fixGranddaughters() {
	n := c.count(fiqh.Granddaughter)
	if n == 0 || c.has(fiqh.Son) || c.has(fiqh.Grandson) {
		return
	}
	key := fiqh.Granddaughter.ShareKey()
	switch c.count(fiqh.Daughter) {
	case 0:
		if n == 1 {
			c.fixed(key, 1, fraction.Half, "1/2: a single son's daughter")
		} else {
			c.fixed(key, n, fraction.TwoThirds, "2/3: two or more son's daughters")
		}
	case 1:
		c.fixed(key, n, fraction.Sixth, "1/6 completing two thirds with the daughter")
	}
}

func (c *calculation) fixFullSisters() {
	n := c.count(fiqh.FullSister)
	if n == 0 || c.has(fiqh.FullBrother) || c.hasDescendants() || c.hasMaleAscendant() {
		return
	}
	if n == 1 {
		c.fixed(fiqh.FullSister.ShareKey(), 1, fraction.Half, "1/2: a single full sister")
		return
	}
	c.fixed(fiqh.FullSister.ShareKey(), n, fraction.TwoThirds, "2/3: two or more full sisters")
}

func (c *calculation) fixPaternalSisters() {
	n := c.count(fiqh.PaternalSister)
	if n == 0 || c.has(fiqh.PaternalBrother) || c.has(fiqh.FullBrother) || c.hasDescendants() || c.hasMaleAscendant() {
		return
	}
	key := fiqh.PaternalSister.ShareKey()
	switch c.count(fiqh.FullSister) {
	case 0:
		if n == 1 {
			c.fixed(key, 1, fraction.Half, "1/2: a single paternal half-sister")
		} else {
			c.fixed(key, n, fraction.TwoThirds, "2/3: two or more paternal half-sisters")
		}
	case 1:
		c.fixed(key, n, fraction.Sixth, "1/6 completing two thirds with the full sister")
	}
}

func (c *calculation) fixMaternalSiblings() {
	n := c.maternalSiblings()
	if n == 0 || c.hasDescendants() || c.hasMaleAscendant() {
		return
	}
	if n == 1 {
		c.fixed(fiqh.KeyMaternalSiblings, 1, fraction.Sixth, "1/6: a single maternal sibling")
		return
	}
	c.fixed(fiqh.KeyMaternalSiblings, n, fraction.Third, "1/3 shared equally")
}

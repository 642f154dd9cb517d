package engine

import (
	"fmt"
	"strings"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
)

// hijabRule is one exclusion rule. Rules run in table order and each sees the
// roster left by the rules before it.
type hijabRule struct {
	name  string
	apply func(c *calculation)
}

var hijabRules = []hijabRule{
	{"father excludes grandfather", excludeGrandfather},
	{"mother excludes grandmothers", excludeGrandmothersByMother},
	{"father excludes paternal grandmother", excludePaternalGrandmother},
	{"son excludes son's children", excludeGrandchildren},
	{"two daughters exclude son's daughter", excludeGranddaughterByDaughters},
	{"male descendant or father excludes siblings", excludeSiblingsByDescendantOrFather},
	{"grandfather excludes siblings", excludeSiblingsByGrandfather},
	{"descendant or male ascendant excludes maternal siblings", excludeMaternalSiblings},
	{"full brother excludes paternal brother", excludePaternalBrother},
	{"two full sisters exclude paternal sister", excludePaternalSister},
	{"closer residuary excludes distant tier", excludeDistantTier},
}

var fullAndPaternalSiblings = []fiqh.Heir{fiqh.FullBrother, fiqh.FullSister, fiqh.PaternalBrother, fiqh.PaternalSister}

// applyHijab runs stage 4.
func (c *calculation) applyHijab() {
	c.step("Hijab", "checking exclusion rules", models.LevelInfo)
	before := len(c.blocked)
	for _, rule := range hijabRules {
		rule.apply(c)
	}
	if n := len(c.blocked) - before; n > 0 {
		c.stepf(models.LevelWarning, "Hijab result", "%d heir(s) excluded", n)
		return
	}
	c.step("Hijab result", "no heir excluded", models.LevelSuccess)
}

// Rule 1
func excludeGrandfather(c *calculation) {
	if c.has(fiqh.Father) {
		c.block(fiqh.Grandfather, fiqh.Father.String(), "the grandfather is excluded by the father")
	}
}

// Rule 2
func excludeGrandmothersByMother(c *calculation) {
	if !c.has(fiqh.Mother) {
		return
	}
	c.block(fiqh.GrandmotherMother, fiqh.Mother.String(), "the maternal grandmother is excluded by the mother")
	c.block(fiqh.GrandmotherFather, fiqh.Mother.String(), "the paternal grandmother is excluded by the mother")
}

// Rule 3
func excludePaternalGrandmother(c *calculation) {
	if c.has(fiqh.Father) {
		c.block(fiqh.GrandmotherFather, fiqh.Father.String(), "the paternal grandmother is excluded by the father")
	}
}

// Rule 4
func excludeGrandchildren(c *calculation) {
	if !c.has(fiqh.Son) {
		return
	}
	c.block(fiqh.Grandson, fiqh.Son.String(), "the son's son is excluded by the nearer son")
	c.block(fiqh.Granddaughter, fiqh.Son.String(), "the son's daughter is excluded by the son")
}

// Rule 5
func excludeGranddaughterByDaughters(c *calculation) {
	if c.count(fiqh.Daughter) >= 2 && !c.has(fiqh.Grandson) {
		c.block(fiqh.Granddaughter, fiqh.Daughter.String(), "the son's daughter is excluded by two or more daughters")
	}
}

// Rule 6
func excludeSiblingsByDescendantOrFather(c *calculation) {
	blocker, ok := c.firstPresent(fiqh.Father, fiqh.Son, fiqh.Grandson)
	if !ok {
		return
	}
	for _, h := range fullAndPaternalSiblings {
		c.block(h, blocker.String(), fmt.Sprintf("the %s is excluded by the %s", lower(h.Name()), lower(blocker.Name())))
	}
}

// Rule 7
func excludeSiblingsByGrandfather(c *calculation) {
	if !c.has(fiqh.Grandfather) || c.grandfatherShares() {
		return
	}
	before := len(c.blocked)
	for _, h := range fullAndPaternalSiblings {
		c.block(h, fiqh.Grandfather.String(), fmt.Sprintf("the %s is excluded by the grandfather (%s)", lower(h.Name()), c.cfg.Name))
	}
	if len(c.blocked) > before {
		c.note("%s: the grandfather excludes full and paternal siblings", c.cfg.Name)
	}
}

// Rule 8
func excludeMaternalSiblings(c *calculation) {
	blocker, ok := c.firstPresent(fiqh.Son, fiqh.Daughter, fiqh.Grandson, fiqh.Granddaughter, fiqh.Father, fiqh.Grandfather)
	if !ok {
		return
	}
	for _, h := range []fiqh.Heir{fiqh.MaternalBrother, fiqh.MaternalSister} {
		c.block(h, blocker.String(), fmt.Sprintf("the %s is excluded by the %s", lower(h.Name()), lower(blocker.Name())))
	}
}

// Rule 9
func excludePaternalBrother(c *calculation) {
	if c.has(fiqh.FullBrother) {
		c.block(fiqh.PaternalBrother, fiqh.FullBrother.String(), "the paternal half-brother is excluded by the full brother")
	}
}

// Rule 10
func excludePaternalSister(c *calculation) {
	if c.count(fiqh.FullSister) >= 2 && !c.has(fiqh.PaternalBrother) {
		c.block(fiqh.PaternalSister, fiqh.FullSister.String(), "the paternal half-sister is excluded by two or more full sisters")
	}
}

// Rule 11
func excludeDistantTier(c *calculation) {
	closer := []fiqh.Heir{fiqh.Son, fiqh.Grandson, fiqh.Father, fiqh.FullBrother, fiqh.PaternalBrother}
	if c.grandfatherShares() {
		closer = append(closer, fiqh.Grandfather)
	}
	if blocker, ok := c.firstPresent(closer...); ok {
		for _, h := range fiqh.DistantTier() {
			c.block(h, blocker.String(), fmt.Sprintf("the %s is excluded by a closer residuary (%s)", lower(h.Name()), lower(blocker.Name())))
		}
		return
	}

	tier := fiqh.DistantTier()
	for i, h := range tier {
		if !c.has(h) {
			continue
		}
		for _, farther := range tier[i+1:] {
			c.block(farther, h.String(), fmt.Sprintf("the %s is excluded by the nearer %s", lower(farther.Name()), lower(h.Name())))
		}
		return
	}
}

func lower(s string) string { return strings.ToLower(s) }

package engine

import (
	"fmt"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

type residuaryMember struct {
	heir   fiqh.Heir
	weight int64
}

// residuaryClass is one row of the residuary precedence table. The first row
// whose predicate holds takes the whole remainder.
type residuaryClass struct {
	name     string
	applies  func(c *calculation) bool
	members  func(c *calculation) []residuaryMember
	onSelect func(c *calculation)
}

var residuaryClasses = []residuaryClass{
	{
		name:    "sons with daughters",
		applies: present(fiqh.Son),
		members: maleAndFemale(fiqh.Son, fiqh.Daughter),
	},
	{
		name:    "son's sons with son's daughters",
		applies: present(fiqh.Grandson),
		members: maleAndFemale(fiqh.Grandson, fiqh.Granddaughter),
	},
	{
		name:    "father",
		applies: present(fiqh.Father),
		members: alone(fiqh.Father),
	},
	{
		name: "grandfather with siblings",
		applies: func(c *calculation) bool {
			return c.has(fiqh.Grandfather) && c.grandfatherShares() && c.fullSiblings()+c.paternalSiblings() > 0
		},
		members: func(*calculation) []residuaryMember {
			return []residuaryMember{
				{fiqh.Grandfather, 2},
				{fiqh.FullBrother, 2},
				{fiqh.FullSister, 1},
				{fiqh.PaternalBrother, 2},
				{fiqh.PaternalSister, 1},
			}
		},
		onSelect: func(c *calculation) {
			c.special(models.SpecialCase{
				Type:        models.CaseGrandfatherWithSiblings,
				Name:        "Grandfather with siblings",
				Description: fmt.Sprintf("the grandfather shares the residue with the siblings (%s)", c.cfg.Name),
			})
		},
	},
	{
		name:    "grandfather",
		applies: present(fiqh.Grandfather),
		members: alone(fiqh.Grandfather),
	},
	{
		name:    "full brothers with full sisters",
		applies: present(fiqh.FullBrother),
		members: maleAndFemale(fiqh.FullBrother, fiqh.FullSister),
	},
	{
		name: "full sisters with daughters",
		applies: func(c *calculation) bool {
			return c.has(fiqh.FullSister) && c.hasFemaleDescendants()
		},
		members: alone(fiqh.FullSister),
		onSelect: func(c *calculation) {
			c.special(models.SpecialCase{
				Type:        models.CaseSisterWithDaughters,
				Name:        "Residuary with others",
				Description: "the full sister becomes residuary alongside the daughters",
			})
			for _, h := range []fiqh.Heir{fiqh.PaternalBrother, fiqh.PaternalSister} {
				c.block(h, fiqh.FullSister.String(), fmt.Sprintf("the %s is excluded by the residuary full sister", lower(h.Name())))
			}
		},
	},
	{
		name:    "paternal brothers with paternal sisters",
		applies: present(fiqh.PaternalBrother),
		members: maleAndFemale(fiqh.PaternalBrother, fiqh.PaternalSister),
	},
	{
		name: "paternal sisters with daughters",
		applies: func(c *calculation) bool {
			return c.has(fiqh.PaternalSister) && c.hasFemaleDescendants() && !c.has(fiqh.FullSister)
		},
		members: alone(fiqh.PaternalSister),
		onSelect: func(c *calculation) {
			c.special(models.SpecialCase{
				Type:        models.CasePaternalSisterWithDaughter,
				Name:        "Residuary with others",
				Description: "the paternal half-sister becomes residuary alongside the daughters",
			})
		},
	},
	{
		name: "distant residuary",
		applies: func(c *calculation) bool {
			return c.has(fiqh.DistantTier()...)
		},
		members: func(c *calculation) []residuaryMember {
			h, _ := c.firstPresent(fiqh.DistantTier()...)
			return []residuaryMember{{h, 1}}
		},
	},
}

func present(h fiqh.Heir) func(*calculation) bool {
	return func(c *calculation) bool { return c.has(h) }
}

func alone(h fiqh.Heir) func(*calculation) []residuaryMember {
	return func(*calculation) []residuaryMember { return []residuaryMember{{h, 1}} }
}

// maleAndFemale weights a male two to a female's one.
func maleAndFemale(male, female fiqh.Heir) func(*calculation) []residuaryMember {
	return func(*calculation) []residuaryMember {
		return []residuaryMember{{male, 2}, {female, 1}}
	}
}

func (c *calculation) selectResiduaryClass() (residuaryClass, bool) {
	for _, rc := range residuaryClasses {
		if rc.applies(c) {
			return rc, true
		}
	}
	return residuaryClass{}, false
}

// distributeResiduary runs stage 7.
func (c *calculation) distributeResiduary() error {
	rem := c.remainder()
	if !rem.IsPositive() {
		c.step("Residuary", "nothing remains for residuary heirs", models.LevelSuccess)
		return nil
	}

	class, ok := c.selectResiduaryClass()
	if !ok {
		c.step("Residuary", "no residuary heir present", models.LevelInfo)
		return nil
	}
	if class.onSelect != nil {
		class.onSelect(c)
	}

	type portion struct {
		heir   fiqh.Heir
		count  int
		weight int64
	}
	var portions []portion
	var total int64
	for _, m := range class.members(c) {
		n := c.count(m.heir)
		if n == 0 {
			continue
		}
		w := m.weight * int64(n)
		portions = append(portions, portion{m.heir, n, w})
		total += w
	}
	if total == 0 {
		return fmt.Errorf("residuary class %q has no members", class.name)
	}

	c.residuaryFound = true
	for _, p := range portions {
		part, err := fraction.New(p.weight, total)
		if err != nil {
			return fmt.Errorf("residuary weight: %w", err)
		}
		amount := rem.Mul(part)

		if existing := c.share(p.heir.ShareKey()); existing != nil {
			existing.AddFraction(amount)
			existing.Classification = models.ClassFixedResiduary
			existing.Reason += " + residue"
			continue
		}
		c.addShare(models.NewShare(p.heir.ShareKey(), models.ClassResiduary, p.count, amount,
			fmt.Sprintf("residue (%d/%d)", p.weight, total)))
	}

	c.stepf(models.LevelSuccess, "Residuary", "%s remainder goes to %s", rem, class.name)
	return nil
}

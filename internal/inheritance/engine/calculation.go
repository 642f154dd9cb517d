package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

// calculation is the working state of one Calculate call. It is never shared.
type calculation struct {
	cfg            fiqh.Config
	spouseConflict SpouseConflictPolicy

	estate models.Estate
	net    decimal.Decimal

	// input is the roster after normalization, before any exclusion.
	input models.HeirCounts
	// heirs is the live roster; excluded heirs are zeroed here.
	heirs models.HeirCounts

	shares []*models.Share

	asl            int64
	finalBase      int64
	awlRatio       *fraction.Fraction
	awlApplied     bool
	raddApplied    bool
	bloodApplied   bool
	residuaryFound bool
	umariyyah      bool

	specialCases []models.SpecialCase
	blocked      []models.BlockedHeir
	notes        []string
	warnings     []string
	errs         []string
	steps        []models.Step
	confidence   float64
}

func newCalculation(cfg fiqh.Config, policy SpouseConflictPolicy, estate models.Estate, heirs models.HeirCounts) *calculation {
	return &calculation{
		cfg:            cfg,
		spouseConflict: policy,
		estate:         estate,
		heirs:          heirs.Clone(),
		asl:            1,
		finalBase:      1,
		confidence:     1,
	}
}

func (c *calculation) count(h fiqh.Heir) int { return c.heirs[h] }

func (c *calculation) has(heirs ...fiqh.Heir) bool { return c.heirs.Has(heirs...) }

func (c *calculation) hasDescendants() bool {
	return c.has(fiqh.Son, fiqh.Daughter, fiqh.Grandson, fiqh.Granddaughter)
}

func (c *calculation) hasMaleDescendants() bool {
	return c.has(fiqh.Son, fiqh.Grandson)
}

func (c *calculation) hasFemaleDescendants() bool {
	return c.has(fiqh.Daughter, fiqh.Granddaughter)
}

func (c *calculation) hasMaleAscendant() bool {
	return c.has(fiqh.Father, fiqh.Grandfather)
}

func (c *calculation) hasSpouse() bool {
	return c.has(fiqh.Husband, fiqh.Wife)
}

func (c *calculation) fullSiblings() int {
	return c.heirs.Sum(fiqh.FullBrother, fiqh.FullSister)
}

func (c *calculation) paternalSiblings() int {
	return c.heirs.Sum(fiqh.PaternalBrother, fiqh.PaternalSister)
}

func (c *calculation) maternalSiblings() int {
	return c.heirs.Sum(fiqh.MaternalBrother, fiqh.MaternalSister)
}

func (c *calculation) grandfatherShares() bool {
	return c.cfg.Rules.GrandfatherWithSiblings == fiqh.GrandfatherShares
}

// firstPresent returns the first of heirs with a non-zero count.
func (c *calculation) firstPresent(heirs ...fiqh.Heir) (fiqh.Heir, bool) {
	for _, h := range heirs {
		if c.heirs[h] > 0 {
			return h, true
		}
	}
	return 0, false
}

// block zeroes h and logs the exclusion. Absent heirs are ignored.
func (c *calculation) block(h fiqh.Heir, by, reason string) {
	if c.heirs[h] == 0 {
		return
	}
	c.blocked = append(c.blocked, models.BlockedHeir{Heir: h, BlockedBy: by, Reason: reason})
	c.heirs[h] = 0
}

func (c *calculation) share(key fiqh.ShareKey) *models.Share {
	for _, s := range c.shares {
		if s.Key == key {
			return s
		}
	}
	return nil
}

func (c *calculation) addShare(s *models.Share) {
	c.shares = append(c.shares, s)
}

func (c *calculation) allocated() fraction.Fraction {
	total := fraction.Zero
	for _, s := range c.shares {
		total = total.Add(s.Fraction)
	}
	return total
}

func (c *calculation) remainder() fraction.Fraction {
	return fraction.One.Sub(c.allocated())
}

func (c *calculation) step(title, description string, level models.StepLevel) {
	c.steps = append(c.steps, models.Step{Title: title, Description: description, Level: level})
}

func (c *calculation) stepf(level models.StepLevel, title, format string, args ...any) {
	c.step(title, fmt.Sprintf(format, args...), level)
}

func (c *calculation) note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

func (c *calculation) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *calculation) special(sc models.SpecialCase) {
	c.specialCases = append(c.specialCases, sc)
}

func (c *calculation) result() *models.Result {
	shares := make([]models.Share, 0, len(c.shares))
	for _, s := range c.shares {
		if s.Fraction.IsZero() {
			continue
		}
		shares = append(shares, *s)
	}

	return &models.Result{
		Madhab:                c.cfg.ID,
		MadhabName:            c.cfg.Name,
		Estate:                c.estate,
		Heirs:                 c.input.Clone(),
		NetEstate:             c.net,
		Asl:                   c.asl,
		FinalBase:             c.finalBase,
		AwlApplied:            c.awlApplied,
		AwlRatio:              c.awlRatio,
		RaddApplied:           c.raddApplied,
		BloodRelativesApplied: c.bloodApplied,
		Shares:                shares,
		SpecialCases:          nonNil(c.specialCases),
		BlockedHeirs:          nonNil(c.blocked),
		MadhabNotes:           nonNil(c.notes),
		Warnings:              nonNil(c.warnings),
		Steps:                 nonNil(c.steps),
		Confidence:            c.confidence,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package models

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
)

// DefaultCurrency is applied when an estate carries no currency code.
const DefaultCurrency = "SAR"

// Estate is the gross estate and the three deductions taken before
// distribution.
type Estate struct {
	Total    decimal.Decimal `json:"total"`
	Funeral  decimal.Decimal `json:"funeral"`
	Debts    decimal.Decimal `json:"debts"`
	Will     decimal.Decimal `json:"will"`
	Currency string          `json:"currency,omitempty"`
}

// Net returns total minus every deduction.
func (e Estate) Net() decimal.Decimal {
	return e.Total.Sub(e.Funeral).Sub(e.Debts).Sub(e.Will)
}

// HeirCounts maps each heir category to its multiplicity.
type HeirCounts map[fiqh.Heir]int

// Get returns the count for h, zero when absent.
func (c HeirCounts) Get(h fiqh.Heir) int {
	return c[h]
}

// Has reports whether any of the given heirs is present.
func (c HeirCounts) Has(heirs ...fiqh.Heir) bool {
	for _, h := range heirs {
		if c[h] > 0 {
			return true
		}
	}
	return false
}

// Sum adds the counts of the given heirs.
func (c HeirCounts) Sum(heirs ...fiqh.Heir) int {
	total := 0
	for _, h := range heirs {
		total += c[h]
	}
	return total
}

func (c HeirCounts) Clone() HeirCounts {
	out := make(HeirCounts, len(c))
	for h, n := range c {
		out[h] = n
	}
	return out
}

// String serializes non-zero counts in enumeration order, e.g.
// "husband=1,mother=1". Equal maps always produce equal strings.
func (c HeirCounts) String() string {
	var b strings.Builder
	for _, h := range fiqh.AllHeirs() {
		n := c[h]
		if n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(h.String())
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Classification describes how a share line was earned.
type Classification string

const (
	ClassFixed          Classification = "fixed"
	ClassResiduary      Classification = "residuary"
	ClassFixedResiduary Classification = "fixed+residuary"
	ClassReturn         Classification = "return"
	ClassBloodRelative  Classification = "blood_relative"
	ClassTreasury       Classification = "treasury"
)

// SpecialCaseType names a recognised exceptional configuration.
type SpecialCaseType string

const (
	CaseUmariyyah                  SpecialCaseType = "umariyyah"
	CaseMusharraka                 SpecialCaseType = "musharraka"
	CaseAkdariyya                  SpecialCaseType = "akdariyya"
	CaseAwl                        SpecialCaseType = "awl"
	CaseRadd                       SpecialCaseType = "radd"
	CaseGrandfatherWithSiblings    SpecialCaseType = "grandfather_with_siblings"
	CaseSisterWithDaughters        SpecialCaseType = "sister_with_daughters"
	CasePaternalSisterWithDaughter SpecialCaseType = "paternal_sister_with_daughters"
	CaseBloodRelatives             SpecialCaseType = "blood_relatives"
	CaseTreasury                   SpecialCaseType = "treasury"
)

type SpecialCase struct {
	Type        SpecialCaseType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
}

// BlockedHeir records one exclusion applied during the calculation.
type BlockedHeir struct {
	Heir      fiqh.Heir `json:"heir"`
	BlockedBy string    `json:"blocked_by"`
	Reason    string    `json:"reason"`
}

type StepLevel string

const (
	LevelInfo    StepLevel = "info"
	LevelSuccess StepLevel = "success"
	LevelWarning StepLevel = "warning"
	LevelError   StepLevel = "error"
)

// Step is one entry of the audit trace.
type Step struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       StepLevel `json:"level"`
}

// Result is the outcome of a successful distribution.
type Result struct {
	Madhab                fiqh.Madhab        `json:"madhab"`
	MadhabName            string             `json:"madhab_name"`
	Estate                Estate             `json:"estate"`
	Heirs                 HeirCounts         `json:"heirs"`
	NetEstate             decimal.Decimal    `json:"net_estate"`
	Asl                   int64              `json:"asl"`
	FinalBase             int64              `json:"final_base"`
	AwlApplied            bool               `json:"awl_applied"`
	AwlRatio              *fraction.Fraction `json:"awl_ratio,omitempty"`
	RaddApplied           bool               `json:"radd_applied"`
	BloodRelativesApplied bool               `json:"blood_relatives_applied"`
	Shares                []Share            `json:"shares"`
	SpecialCases          []SpecialCase      `json:"special_cases"`
	BlockedHeirs          []BlockedHeir      `json:"blocked_heirs"`
	MadhabNotes           []string           `json:"madhab_notes"`
	Warnings              []string           `json:"warnings"`
	Steps                 []Step             `json:"steps"`
	Confidence            float64            `json:"confidence"`
}

// Share returns the line for key, if present.
func (r *Result) Share(key fiqh.ShareKey) (Share, bool) {
	for _, s := range r.Shares {
		if s.Key == key {
			return s, true
		}
	}
	return Share{}, false
}

// HasSpecialCase reports whether a special case of type t was recorded.
func (r *Result) HasSpecialCase(t SpecialCaseType) bool {
	return slices.ContainsFunc(r.SpecialCases, func(sc SpecialCase) bool { return sc.Type == t })
}

// IsBlocked reports whether h appears in the blocked-heir log.
func (r *Result) IsBlocked(h fiqh.Heir) bool {
	return slices.ContainsFunc(r.BlockedHeirs, func(b BlockedHeir) bool { return b.Heir == h })
}

// TotalFraction sums every share fraction.
func (r *Result) TotalFraction() fraction.Fraction {
	total := fraction.Zero
	for _, s := range r.Shares {
		total = total.Add(s.Fraction)
	}
	return total
}

// TotalAmount sums every share amount.
func (r *Result) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, s := range r.Shares {
		total = total.Add(s.Amount)
	}
	return total
}

// Clone returns a deep copy so cached results are never shared mutably.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Heirs = r.Heirs.Clone()
	if r.AwlRatio != nil {
		ratio := *r.AwlRatio
		out.AwlRatio = &ratio
	}
	out.Shares = slices.Clone(r.Shares)
	out.SpecialCases = slices.Clone(r.SpecialCases)
	out.BlockedHeirs = slices.Clone(r.BlockedHeirs)
	out.MadhabNotes = slices.Clone(r.MadhabNotes)
	out.Warnings = slices.Clone(r.Warnings)
	out.Steps = slices.Clone(r.Steps)
	return &out
}

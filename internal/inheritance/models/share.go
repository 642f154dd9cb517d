package models

import (
	"github.com/shopspring/decimal"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/fraction"
)

// Share is one entitlement line. Pipeline stages layer entitlement onto the
// same line; monetary fields are filled in only once the fractions are final.
type Share struct {
	Key              fiqh.ShareKey     `json:"key"`
	Name             string            `json:"name"`
	Classification   Classification    `json:"classification"`
	Count            int               `json:"count"`
	Fraction         fraction.Fraction `json:"fraction"`
	OriginalFraction fraction.Fraction `json:"original_fraction"`
	Units            int64             `json:"units,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	Amount           decimal.Decimal   `json:"amount"`
	AmountPerPerson  decimal.Decimal   `json:"amount_per_person"`
}

// NewShare builds a line whose original fraction equals its starting fraction.
func NewShare(key fiqh.ShareKey, class Classification, count int, f fraction.Fraction, reason string) *Share {
	if count < 1 {
		count = 1
	}
	return &Share{
		Key:              key,
		Name:             key.Name(),
		Classification:   class,
		Count:            count,
		Fraction:         f,
		OriginalFraction: f,
		Reason:           reason,
	}
}

func (s *Share) SetFraction(f fraction.Fraction) {
	s.Fraction = f
}

func (s *Share) AddFraction(f fraction.Fraction) {
	s.Fraction = s.Fraction.Add(f)
}

// ComputeAmount sets Amount = net × Fraction and splits it per person.
func (s *Share) ComputeAmount(net decimal.Decimal) {
	s.Amount = net.Mul(decimal.NewFromInt(s.Fraction.Num())).Div(decimal.NewFromInt(s.Fraction.Den()))
	s.splitPerPerson()
}

// PerPersonFraction returns each individual's portion of the line.
func (s *Share) PerPersonFraction() fraction.Fraction {
	if s.Count <= 0 {
		return fraction.Zero
	}
	f, err := s.Fraction.Div(fraction.FromInt(int64(s.Count)))
	if err != nil {
		return fraction.Zero
	}
	return f
}

// Percent renders the share as a percentage of the net estate.
func (s *Share) Percent() string {
	return s.Fraction.Percent()
}

func (s *Share) splitPerPerson() {
	if s.Count <= 0 {
		s.AmountPerPerson = decimal.Zero
		return
	}
	s.AmountPerPerson = s.Amount.Div(decimal.NewFromInt(int64(s.Count)))
}

// SetAmount overrides the monetary amount and recomputes the per-person split.
func (s *Share) SetAmount(amount decimal.Decimal) {
	s.Amount = amount
	s.splitPerPerson()
}

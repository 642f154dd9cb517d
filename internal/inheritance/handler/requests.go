package handler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	dErrors "faraid/pkg/domain-errors"
	pstrings "faraid/pkg/platform/strings"
)

const maxHeirKinds = 64

// EstateRequest accepts amounts as JSON numbers or decimal strings. Missing
// deductions are zero.
type EstateRequest struct {
	Total    decimal.Decimal `json:"total"`
	Funeral  decimal.Decimal `json:"funeral"`
	Debts    decimal.Decimal `json:"debts"`
	Will     decimal.Decimal `json:"will"`
	Currency string          `json:"currency"`
}

// CompareRequest is the body of POST /v1/inheritance/compare.
type CompareRequest struct {
	Estate EstateRequest  `json:"estate"`
	Heirs  map[string]int `json:"heirs"`

	parsedEstate models.Estate
	parsedHeirs  models.HeirCounts
}

// CalculateRequest is the body of POST /v1/inheritance/calculate.
type CalculateRequest struct {
	Madhab string `json:"madhab"`
	CompareRequest

	parsedMadhab fiqh.Madhab
}

// Validate implements httputil.Validatable.
func (r *CalculateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Madhab = pstrings.Key(r.Madhab)
	if r.Madhab == "" {
		return dErrors.New(dErrors.CodeValidation, "madhab is required")
	}
	m, err := fiqh.ParseMadhab(r.Madhab)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "madhab must be one of shafii, hanafi, maliki, hanbali")
	}
	r.parsedMadhab = m
	return r.CompareRequest.Validate()
}

// Validate implements httputil.Validatable. The engine repeats its own checks;
// these give early, field-level feedback.
func (r *CompareRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	estate, err := r.Estate.parse()
	if err != nil {
		return err
	}
	heirs, err := parseHeirs(r.Heirs)
	if err != nil {
		return err
	}
	r.parsedEstate = estate
	r.parsedHeirs = heirs
	return nil
}

func (r *CalculateRequest) ParsedMadhab() fiqh.Madhab { return r.parsedMadhab }

func (r *CompareRequest) ParsedEstate() models.Estate { return r.parsedEstate }

func (r *CompareRequest) ParsedHeirs() models.HeirCounts { return r.parsedHeirs }

func (e EstateRequest) parse() (models.Estate, error) {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"estate.total", e.Total},
		{"estate.funeral", e.Funeral},
		{"estate.debts", e.Debts},
		{"estate.will", e.Will},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return models.Estate{}, dErrors.New(dErrors.CodeValidation, f.name+" must not be negative")
		}
	}
	if !e.Total.IsPositive() {
		return models.Estate{}, dErrors.New(dErrors.CodeValidation, "estate.total must be positive")
	}

	code := strings.ToUpper(strings.TrimSpace(e.Currency))
	if code != "" {
		if _, err := currency.ParseISO(code); err != nil {
			return models.Estate{}, dErrors.Wrap(err, dErrors.CodeValidation, "estate.currency must be an ISO 4217 code")
		}
	}
	return models.Estate{
		Total:    e.Total,
		Funeral:  e.Funeral,
		Debts:    e.Debts,
		Will:     e.Will,
		Currency: code,
	}, nil
}

// parseHeirs rejects unknown keys, negative counts and a husband with a wife.
// Counts above an heir's maximum pass through; the engine clamps them and
// reports a warning.
func parseHeirs(raw map[string]int) (models.HeirCounts, error) {
	if len(raw) > maxHeirKinds {
		return nil, dErrors.New(dErrors.CodeValidation, "too many heir entries")
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	heirs := make(models.HeirCounts, len(raw))
	for _, key := range keys {
		n := raw[key]
		h, err := fiqh.ParseHeir(pstrings.Key(key))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("unknown heir %q", key))
		}
		if n < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("heirs.%s must not be negative", h))
		}
		if n > 0 {
			heirs[h] += n
		}
	}
	if len(heirs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one heir is required")
	}
	if heirs.Has(fiqh.Husband) && heirs.Has(fiqh.Wife) {
		return nil, dErrors.New(dErrors.CodeValidation, "husband and wife cannot both be present")
	}
	return heirs, nil
}

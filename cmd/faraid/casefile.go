package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	pstrings "faraid/pkg/platform/strings"
)

// caseFile is the YAML form of one estate. Amounts are read as strings so
// they keep their exact decimal value.
//
//	madhab: hanafi
//	estate:
//	  total: 120000
//	  debts: 2500.75
//	  currency: SAR
//	heirs:
//	  husband: 1
//	  daughter: 2
type caseFile struct {
	Madhab string `yaml:"madhab"`
	Estate struct {
		Total    string `yaml:"total"`
		Funeral  string `yaml:"funeral"`
		Debts    string `yaml:"debts"`
		Will     string `yaml:"will"`
		Currency string `yaml:"currency"`
	} `yaml:"estate"`
	Heirs map[string]int `yaml:"heirs"`
}

func loadCaseFile(path string) (*caseFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var cf caseFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse case file %s: %w", path, err)
	}
	return &cf, nil
}

// caseInput collects flag values; a case file, when given, fills whatever the
// flags left empty.
type caseInput struct {
	file     string
	madhab   string
	total    string
	funeral  string
	debts    string
	will     string
	currency string
	heirs    map[string]int
}

func (in *caseInput) merge() error {
	if in.file == "" {
		return nil
	}
	cf, err := loadCaseFile(in.file)
	if err != nil {
		return err
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&in.madhab, cf.Madhab)
	fill(&in.total, cf.Estate.Total)
	fill(&in.funeral, cf.Estate.Funeral)
	fill(&in.debts, cf.Estate.Debts)
	fill(&in.will, cf.Estate.Will)
	fill(&in.currency, cf.Estate.Currency)
	if len(in.heirs) == 0 {
		in.heirs = cf.Heirs
	}
	return nil
}

func (in *caseInput) estate() (models.Estate, error) {
	var est models.Estate
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"total", in.total, &est.Total},
		{"funeral", in.funeral, &est.Funeral},
		{"debts", in.debts, &est.Debts},
		{"will", in.will, &est.Will},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return models.Estate{}, fmt.Errorf("%s: %q is not a decimal amount", f.name, f.raw)
		}
		*f.dst = d
	}
	if est.Total.IsZero() {
		return models.Estate{}, fmt.Errorf("estate total is required")
	}
	est.Currency = strings.ToUpper(strings.TrimSpace(in.currency))
	return est, nil
}

func (in *caseInput) heirCounts() (models.HeirCounts, error) {
	if len(in.heirs) == 0 {
		return nil, fmt.Errorf("at least one heir is required (use --heir key=count)")
	}
	out := make(models.HeirCounts, len(in.heirs))
	for key, n := range in.heirs {
		h, err := fiqh.ParseHeir(pstrings.Key(key))
		if err != nil {
			return nil, err
		}
		out[h] += n
	}
	return out, nil
}

func (in *caseInput) parsedMadhab() (fiqh.Madhab, error) {
	if strings.TrimSpace(in.madhab) == "" {
		return "", fmt.Errorf("madhab is required")
	}
	return fiqh.ParseMadhab(pstrings.Key(in.madhab))
}

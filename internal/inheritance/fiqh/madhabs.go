package fiqh

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownMadhab is returned for a madhab id outside the four schools.
var ErrUnknownMadhab = errors.New("unknown madhab")

// Madhab identifies a school of jurisprudence.
type Madhab string

const (
	Shafii  Madhab = "shafii"
	Hanafi  Madhab = "hanafi"
	Maliki  Madhab = "maliki"
	Hanbali Madhab = "hanbali"
)

// GrandfatherPolicy decides how a grandfather treats full and paternal
// siblings.
type GrandfatherPolicy string

const (
	GrandfatherBlocks GrandfatherPolicy = "blocks"
	GrandfatherShares GrandfatherPolicy = "shares"
)

// Rules are the policy toggles that vary between schools.
type Rules struct {
	GrandfatherWithSiblings GrandfatherPolicy `json:"grandfather_with_siblings"`
	RaddToSpouse            bool              `json:"radd_to_spouse"`
	BloodRelativesEnabled   bool              `json:"blood_relatives_enabled"`
	MusharrakaEnabled       bool              `json:"musharraka_enabled"`
	AkdariyyaEnabled        bool              `json:"akdariyya_enabled"`
}

// Config is the static description of one school.
type Config struct {
	ID              Madhab   `json:"id"`
	Name            string   `json:"name"`
	ArabicName      string   `json:"arabic_name"`
	Founder         string   `json:"founder"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	Rules           Rules    `json:"rules"`
}

var madhabOrder = []Madhab{Shafii, Hanafi, Maliki, Hanbali}

var madhabTable = map[Madhab]Config{
	Shafii: {
		ID:          Shafii,
		Name:        "Shafii",
		ArabicName:  "الشافعي",
		Founder:     "Muhammad ibn Idris al-Shafii",
		Description: "Surplus returns to fixed-share heirs other than spouses. The grandfather excludes siblings. Al-Musharraka applies.",
		Characteristics: []string{
			"surplus returns to fixed-share heirs except spouses",
			"grandfather excludes full and paternal siblings",
			"al-Musharraka is recognised",
			"blood relatives inherit",
		},
		Rules: Rules{
			GrandfatherWithSiblings: GrandfatherBlocks,
			RaddToSpouse:            false,
			BloodRelativesEnabled:   true,
			MusharrakaEnabled:       true,
			AkdariyyaEnabled:        true,
		},
	},
	Hanafi: {
		ID:          Hanafi,
		Name:        "Hanafi",
		ArabicName:  "الحنفي",
		Founder:     "Abu Hanifa al-Numan",
		Description: "Surplus returns to spouses when no one else can take it. The grandfather excludes siblings. No Musharraka.",
		Characteristics: []string{
			"surplus returns to spouses when no other heir remains",
			"grandfather excludes full and paternal siblings",
			"al-Musharraka is not recognised",
			"blood relatives inherit",
		},
		Rules: Rules{
			GrandfatherWithSiblings: GrandfatherBlocks,
			RaddToSpouse:            true,
			BloodRelativesEnabled:   true,
			MusharrakaEnabled:       false,
			AkdariyyaEnabled:        true,
		},
	},
	Maliki: {
		ID:          Maliki,
		Name:        "Maliki",
		ArabicName:  "المالكي",
		Founder:     "Malik ibn Anas",
		Description: "The grandfather shares with siblings. No return to spouses. Any remainder goes to the public treasury. Al-Musharraka applies.",
		Characteristics: []string{
			"grandfather shares with full and paternal siblings",
			"no return of surplus to spouses",
			"remainder goes to the public treasury",
			"al-Musharraka is recognised",
			"blood relatives do not inherit",
		},
		Rules: Rules{
			GrandfatherWithSiblings: GrandfatherShares,
			RaddToSpouse:            false,
			BloodRelativesEnabled:   false,
			MusharrakaEnabled:       true,
			AkdariyyaEnabled:        true,
		},
	},
	Hanbali: {
		ID:          Hanbali,
		Name:        "Hanbali",
		ArabicName:  "الحنبلي",
		Founder:     "Ahmad ibn Hanbal",
		Description: "The grandfather shares with siblings. Surplus returns to spouses when needed. No Musharraka.",
		Characteristics: []string{
			"grandfather shares with full and paternal siblings",
			"surplus returns to spouses when needed",
			"al-Musharraka is not recognised",
			"blood relatives inherit",
		},
		Rules: Rules{
			GrandfatherWithSiblings: GrandfatherShares,
			RaddToSpouse:            true,
			BloodRelativesEnabled:   true,
			MusharrakaEnabled:       false,
			AkdariyyaEnabled:        true,
		},
	},
}

// ParseMadhab validates a madhab id.
func ParseMadhab(id string) (Madhab, error) {
	m := Madhab(id)
	if _, ok := madhabTable[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMadhab, id)
	}
	return m, nil
}

// Lookup returns a copy of the school's configuration.
func Lookup(m Madhab) (Config, error) {
	cfg, ok := madhabTable[m]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownMadhab, string(m))
	}
	cfg.Characteristics = slices.Clone(cfg.Characteristics)
	return cfg, nil
}

// All returns every school's configuration in canonical order.
func All() []Config {
	out := make([]Config, 0, len(madhabOrder))
	for _, m := range madhabOrder {
		cfg, _ := Lookup(m)
		out = append(out, cfg)
	}
	return out
}

// Madhabs returns the four ids in canonical order.
func Madhabs() []Madhab {
	return slices.Clone(madhabOrder)
}

func (m Madhab) String() string { return string(m) }

package fiqh

import (
	"errors"
	"fmt"
)

// ErrUnknownHeir is returned when a key is not one of the supported heir
// categories.
var ErrUnknownHeir = errors.New("unknown heir")

// Heir is one of the closed set of heir categories accepted as input.
type Heir int

const (
	Husband Heir = iota + 1
	Wife
	Father
	Mother
	Grandfather
	GrandmotherMother
	GrandmotherFather
	Son
	Daughter
	Grandson
	Granddaughter
	FullBrother
	FullSister
	PaternalBrother
	PaternalSister
	MaternalBrother
	MaternalSister
	FullNephew
	PaternalNephew
	FullUncle
	PaternalUncle
	FullCousin
	PaternalCousin
	DaughterSon
	DaughterDaughter
	SisterChildren
	MaternalUncle
	MaternalAunt
	PaternalAunt
)

// Category groups heirs for display and validation.
type Category string

const (
	CategorySpouses        Category = "spouses"
	CategoryParents        Category = "parents"
	CategoryChildren       Category = "children"
	CategorySiblings       Category = "siblings"
	CategoryExtended       Category = "extended"
	CategoryBloodRelatives Category = "blood_relatives"
)

// Unbounded marks heirs with no per-key maximum.
const Unbounded = 0

type heirInfo struct {
	key         string
	name        string
	arabicName  string
	description string
	category    Category
	max         int
	bloodClass  int
	distantRank int
}

var heirTable = [...]heirInfo{
	Husband:           {"husband", "Husband", "الزوج", "1/2 without an inheriting descendant, 1/4 with one", CategorySpouses, 1, 0, 0},
	Wife:              {"wife", "Wife", "الزوجة", "1/4 without an inheriting descendant, 1/8 with one, shared between wives", CategorySpouses, 4, 0, 0},
	Father:            {"father", "Father", "الأب", "1/6 with a male descendant, 1/6 plus residue with female descendants, residue otherwise", CategoryParents, 1, 0, 0},
	Mother:            {"mother", "Mother", "الأم", "1/6, 1/3, or a third of the remainder after the spouse", CategoryParents, 1, 0, 0},
	Grandfather:       {"grandfather", "Paternal grandfather", "الجد", "takes the father's place when the father is absent", CategoryParents, 1, 0, 0},
	GrandmotherMother: {"grandmother_mother", "Maternal grandmother", "الجدة لأم", "1/6 when the mother is absent", CategoryParents, 1, 0, 0},
	GrandmotherFather: {"grandmother_father", "Paternal grandmother", "الجدة لأب", "1/6 when neither mother nor father is present", CategoryParents, 1, 0, 0},
	Son:               {"son", "Son", "الابن", "residuary in his own right", CategoryChildren, Unbounded, 0, 0},
	Daughter:          {"daughter", "Daughter", "البنت", "1/2, 2/3, or residuary with a son", CategoryChildren, Unbounded, 0, 0},
	Grandson:          {"grandson", "Son's son", "ابن الابن", "residuary when no son is present", CategoryChildren, Unbounded, 0, 0},
	Granddaughter:     {"granddaughter", "Son's daughter", "بنت الابن", "1/2, 2/3, 1/6 completing two thirds, or residuary with a grandson", CategoryChildren, Unbounded, 0, 0},
	FullBrother:       {"full_brother", "Full brother", "الأخ الشقيق", "residuary in his own right", CategorySiblings, Unbounded, 0, 0},
	FullSister:        {"full_sister", "Full sister", "الأخت الشقيقة", "1/2, 2/3, or residuary", CategorySiblings, Unbounded, 0, 0},
	PaternalBrother:   {"paternal_brother", "Paternal half-brother", "الأخ لأب", "residuary", CategorySiblings, Unbounded, 0, 0},
	PaternalSister:    {"paternal_sister", "Paternal half-sister", "الأخت لأب", "1/2, 2/3, 1/6 completing two thirds, or residuary", CategorySiblings, Unbounded, 0, 0},
	MaternalBrother:   {"maternal_brother", "Maternal half-brother", "الأخ لأم", "1/6 alone, 1/3 shared equally", CategorySiblings, Unbounded, 0, 0},
	MaternalSister:    {"maternal_sister", "Maternal half-sister", "الأخت لأم", "1/6 alone, 1/3 shared equally", CategorySiblings, Unbounded, 0, 0},
	FullNephew:        {"full_nephew", "Full brother's son", "ابن الأخ الشقيق", "residuary", CategoryExtended, Unbounded, 0, 1},
	PaternalNephew:    {"paternal_nephew", "Paternal brother's son", "ابن الأخ لأب", "residuary", CategoryExtended, Unbounded, 0, 2},
	FullUncle:         {"full_uncle", "Full paternal uncle", "العم الشقيق", "residuary", CategoryExtended, Unbounded, 0, 3},
	PaternalUncle:     {"paternal_uncle", "Paternal half-uncle", "العم لأب", "residuary", CategoryExtended, Unbounded, 0, 4},
	FullCousin:        {"full_cousin", "Full uncle's son", "ابن العم الشقيق", "residuary", CategoryExtended, Unbounded, 0, 5},
	PaternalCousin:    {"paternal_cousin", "Paternal uncle's son", "ابن العم لأب", "residuary", CategoryExtended, Unbounded, 0, 6},
	DaughterSon:       {"daughter_son", "Daughter's son", "ابن البنت", "blood relative, class 1", CategoryBloodRelatives, Unbounded, 1, 0},
	DaughterDaughter:  {"daughter_daughter", "Daughter's daughter", "بنت البنت", "blood relative, class 1", CategoryBloodRelatives, Unbounded, 1, 0},
	SisterChildren:    {"sister_children", "Sister's children", "أولاد الأخت", "blood relative, class 2", CategoryBloodRelatives, Unbounded, 2, 0},
	MaternalUncle:     {"maternal_uncle", "Maternal uncle", "الخال", "blood relative, class 3", CategoryBloodRelatives, Unbounded, 3, 0},
	MaternalAunt:      {"maternal_aunt", "Maternal aunt", "الخالة", "blood relative, class 3", CategoryBloodRelatives, Unbounded, 3, 0},
	PaternalAunt:      {"paternal_aunt", "Paternal aunt", "العمة", "blood relative, class 4", CategoryBloodRelatives, Unbounded, 4, 0},
}

var heirsByKey = func() map[string]Heir {
	m := make(map[string]Heir, len(heirTable))
	for _, h := range AllHeirs() {
		m[heirTable[h].key] = h
	}
	return m
}()

// AllHeirs returns every heir in enumeration order.
func AllHeirs() []Heir {
	out := make([]Heir, 0, len(heirTable)-1)
	for h := Husband; h <= PaternalAunt; h++ {
		out = append(out, h)
	}
	return out
}

// DistantTier lists the distant residuaries nearest first.
func DistantTier() []Heir {
	return []Heir{FullNephew, PaternalNephew, FullUncle, PaternalUncle, FullCousin, PaternalCousin}
}

// ParseHeir maps a wire key such as "full_sister" to its Heir.
func ParseHeir(key string) (Heir, error) {
	h, ok := heirsByKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownHeir, key)
	}
	return h, nil
}

func (h Heir) Valid() bool {
	return h >= Husband && h <= PaternalAunt
}

func (h Heir) info() heirInfo {
	if !h.Valid() {
		return heirInfo{key: fmt.Sprintf("heir(%d)", int(h))}
	}
	return heirTable[h]
}

// String returns the wire key.
func (h Heir) String() string      { return h.info().key }
func (h Heir) Name() string        { return h.info().name }
func (h Heir) ArabicName() string  { return h.info().arabicName }
func (h Heir) Description() string { return h.info().description }
func (h Heir) Category() Category  { return h.info().category }

// Max returns the per-key maximum count, or Unbounded.
func (h Heir) Max() int { return h.info().max }

// BloodClass returns the blood-relative priority class (1 is nearest), or 0
// for heirs that are not blood relatives.
func (h Heir) BloodClass() int { return h.info().bloodClass }

// DistantRank returns the precedence of a distant residuary (1 is nearest),
// or 0 for heirs outside that tier.
func (h Heir) DistantRank() int { return h.info().distantRank }

// ShareKey returns the share-line key used when the heir holds its own line.
func (h Heir) ShareKey() ShareKey { return ShareKey(h.String()) }

func (h Heir) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHeir, int(h))
	}
	return []byte(h.String()), nil
}

func (h *Heir) UnmarshalText(text []byte) error {
	parsed, err := ParseHeir(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ShareKey identifies a line in a distribution. It is either an heir key or
// one of the pooled keys below.
type ShareKey string

const (
	KeyGrandmothers     ShareKey = "grandmothers"
	KeyMaternalSiblings ShareKey = "maternal_siblings"
	KeySharedSiblings   ShareKey = "shared_siblings"
	KeyTreasury         ShareKey = "treasury"
)

var pooledNames = map[ShareKey][2]string{
	KeyGrandmothers:     {"Grandmothers", "الجدات"},
	KeyMaternalSiblings: {"Maternal siblings", "الإخوة لأم"},
	KeySharedSiblings:   {"Maternal and full siblings (shared)", "الإخوة (مشتركة)"},
	KeyTreasury:         {"Public treasury", "بيت المال"},
}

// Heir returns the heir behind the key, if it is not a pooled key.
func (k ShareKey) Heir() (Heir, bool) {
	h, ok := heirsByKey[string(k)]
	return h, ok
}

// Name returns the English display name.
func (k ShareKey) Name() string {
	if names, ok := pooledNames[k]; ok {
		return names[0]
	}
	if h, ok := k.Heir(); ok {
		return h.Name()
	}
	return string(k)
}

// ArabicName returns the Arabic display name.
func (k ShareKey) ArabicName() string {
	if names, ok := pooledNames[k]; ok {
		return names[1]
	}
	if h, ok := k.Heir(); ok {
		return h.ArabicName()
	}
	return string(k)
}

package fiqh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeir(t *testing.T) {
	for _, h := range AllHeirs() {
		parsed, err := ParseHeir(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	}

	_, err := ParseHeir("cousin_twice_removed")
	assert.ErrorIs(t, err, ErrUnknownHeir)

	_, err = ParseHeir("treasury")
	assert.ErrorIs(t, err, ErrUnknownHeir, "pooled keys are not inputs")
}

func TestAllHeirs(t *testing.T) {
	heirs := AllHeirs()
	assert.Len(t, heirs, 29)
	assert.Equal(t, Husband, heirs[0])
	assert.Equal(t, PaternalAunt, heirs[len(heirs)-1])
}

func TestHeirMaxima(t *testing.T) {
	tests := map[Heir]int{
		Husband:           1,
		Wife:              4,
		Father:            1,
		Mother:            1,
		Grandfather:       1,
		GrandmotherMother: 1,
		GrandmotherFather: 1,
		Son:               Unbounded,
		FullSister:        Unbounded,
		PaternalAunt:      Unbounded,
	}
	for h, want := range tests {
		assert.Equal(t, want, h.Max(), h.String())
	}
}

func TestBloodClasses(t *testing.T) {
	assert.Equal(t, 1, DaughterSon.BloodClass())
	assert.Equal(t, 1, DaughterDaughter.BloodClass())
	assert.Equal(t, 2, SisterChildren.BloodClass())
	assert.Equal(t, 3, MaternalUncle.BloodClass())
	assert.Equal(t, 3, MaternalAunt.BloodClass())
	assert.Equal(t, 4, PaternalAunt.BloodClass())
	assert.Equal(t, 0, Son.BloodClass())
}

func TestDistantTierOrder(t *testing.T) {
	tier := DistantTier()
	for i, h := range tier {
		assert.Equal(t, i+1, h.DistantRank(), h.String())
		assert.Equal(t, CategoryExtended, h.Category())
	}
	assert.Equal(t, 0, FullBrother.DistantRank())
}

func TestHeirJSONMapKeys(t *testing.T) {
	counts := map[Heir]int{Husband: 1, FullSister: 2}
	raw, err := json.Marshal(counts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"husband":1,"full_sister":2}`, string(raw))

	var decoded map[Heir]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, counts, decoded)

	err = json.Unmarshal([]byte(`{"stranger":1}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownHeir)
}

func TestShareKeyNames(t *testing.T) {
	assert.Equal(t, "Public treasury", KeyTreasury.Name())
	assert.Equal(t, "بيت المال", KeyTreasury.ArabicName())
	assert.Equal(t, "Mother", Mother.ShareKey().Name())

	h, ok := ShareKey("son").Heir()
	assert.True(t, ok)
	assert.Equal(t, Son, h)

	_, ok = KeyGrandmothers.Heir()
	assert.False(t, ok)
}

func TestMadhabRules(t *testing.T) {
	tests := []struct {
		madhab Madhab
		want   Rules
	}{
		{Shafii, Rules{GrandfatherBlocks, false, true, true, true}},
		{Hanafi, Rules{GrandfatherBlocks, true, true, false, true}},
		{Maliki, Rules{GrandfatherShares, false, false, true, true}},
		{Hanbali, Rules{GrandfatherShares, true, true, false, true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.madhab), func(t *testing.T) {
			cfg, err := Lookup(tt.madhab)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Rules)
			assert.Equal(t, tt.madhab, cfg.ID)
			assert.NotEmpty(t, cfg.Characteristics)
		})
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	cfg, err := Lookup(Shafii)
	require.NoError(t, err)
	cfg.Characteristics[0] = "mutated"
	cfg.Rules.RaddToSpouse = true

	again, err := Lookup(Shafii)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Characteristics[0])
	assert.False(t, again.Rules.RaddToSpouse)
}

func TestParseMadhab(t *testing.T) {
	m, err := ParseMadhab("maliki")
	require.NoError(t, err)
	assert.Equal(t, Maliki, m)

	_, err = ParseMadhab("zahiri")
	assert.ErrorIs(t, err, ErrUnknownMadhab)

	_, err = Lookup(Madhab("zahiri"))
	assert.ErrorIs(t, err, ErrUnknownMadhab)

	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, []Madhab{Shafii, Hanafi, Maliki, Hanbali}, Madhabs())
	assert.Equal(t, Hanbali, all[3].ID)
}

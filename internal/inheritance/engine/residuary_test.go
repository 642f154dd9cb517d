package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
)

func TestSelectResiduaryClass(t *testing.T) {
	tests := []struct {
		name   string
		madhab fiqh.Madhab
		heirs  models.HeirCounts
		want   string
	}{
		{"son first", fiqh.Shafii, models.HeirCounts{fiqh.Son: 1, fiqh.Father: 1}, "sons with daughters"},
		{"son's son", fiqh.Shafii, models.HeirCounts{fiqh.Grandson: 1, fiqh.FullBrother: 1}, "son's sons with son's daughters"},
		{"father before siblings", fiqh.Shafii, models.HeirCounts{fiqh.Father: 1, fiqh.FullBrother: 1}, "father"},
		{"grandfather shares", fiqh.Maliki, models.HeirCounts{fiqh.Grandfather: 1, fiqh.PaternalSister: 1}, "grandfather with siblings"},
		{"grandfather alone", fiqh.Shafii, models.HeirCounts{fiqh.Grandfather: 1, fiqh.PaternalSister: 1}, "grandfather"},
		{"full brother", fiqh.Shafii, models.HeirCounts{fiqh.FullBrother: 1, fiqh.FullNephew: 1}, "full brothers with full sisters"},
		{"full sister with daughter", fiqh.Shafii, models.HeirCounts{fiqh.FullSister: 1, fiqh.Daughter: 1, fiqh.PaternalBrother: 1}, "full sisters with daughters"},
		{"paternal brother", fiqh.Shafii, models.HeirCounts{fiqh.PaternalBrother: 1, fiqh.FullSister: 1}, "paternal brothers with paternal sisters"},
		{"paternal sister with son's daughter", fiqh.Shafii, models.HeirCounts{fiqh.PaternalSister: 2, fiqh.Granddaughter: 1}, "paternal sisters with daughters"},
		{"distant", fiqh.Shafii, models.HeirCounts{fiqh.PaternalUncle: 1, fiqh.FullCousin: 1}, "distant residuary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCalculation(t, tt.madhab, tt.heirs)
			rc, ok := c.selectResiduaryClass()
			require.True(t, ok)
			assert.Equal(t, tt.want, rc.name)
		})
	}

	t.Run("none", func(t *testing.T) {
		c := newTestCalculation(t, fiqh.Shafii, models.HeirCounts{fiqh.Mother: 1, fiqh.Daughter: 2})
		_, ok := c.selectResiduaryClass()
		assert.False(t, ok)
	})
}

func TestDistributeResiduary_MaleTakesDouble(t *testing.T) {
	c := newTestCalculation(t, fiqh.Shafii, models.HeirCounts{fiqh.Son: 2, fiqh.Daughter: 3, fiqh.Wife: 1})
	c.applyHijab()
	c.assignFixedShares()
	c.applyAwl()
	require.NoError(t, c.distributeResiduary())

	require.True(t, c.residuaryFound)
	// 7/8 remains over 2·2 + 3 = 7 parts.
	assert.Equal(t, "1/2", c.share("son").Fraction.String())
	assert.Equal(t, "3/8", c.share("daughter").Fraction.String())
	assert.Equal(t, models.ClassResiduary, c.share("daughter").Classification)
}

func TestDistributeResiduary_PromotesFixedHolder(t *testing.T) {
	c := newTestCalculation(t, fiqh.Hanbali, models.HeirCounts{fiqh.Grandfather: 1, fiqh.Daughter: 2})
	c.applyHijab()
	c.assignFixedShares()
	c.applyAwl()
	require.NoError(t, c.distributeResiduary())

	gf := c.share("grandfather")
	require.NotNil(t, gf)
	assert.Equal(t, "1/3", gf.Fraction.String())
	assert.Equal(t, models.ClassFixedResiduary, gf.Classification)
	assert.Contains(t, gf.Reason, "residue")
}

func TestApplyAwl_NoOversubscription(t *testing.T) {
	c := newTestCalculation(t, fiqh.Shafii, models.HeirCounts{fiqh.Wife: 1, fiqh.Mother: 1, fiqh.Daughter: 2})
	c.applyHijab()
	c.assignFixedShares()
	c.applyAwl()

	// 1/8 + 1/6 + 2/3 = 23/24
	assert.Equal(t, int64(24), c.asl)
	assert.Equal(t, int64(24), c.finalBase)
	assert.False(t, c.awlApplied)
	assert.Nil(t, c.awlRatio)
	assert.Equal(t, int64(16), c.share("daughter").Units)
}

func TestApplyAwl_Increase(t *testing.T) {
	// 1/8 + 1/6 + 1/6 + 2/3 = 27/24
	c := newTestCalculation(t, fiqh.Shafii, models.HeirCounts{fiqh.Wife: 1, fiqh.Father: 1, fiqh.Mother: 1, fiqh.Daughter: 2})
	c.applyHijab()
	c.assignFixedShares()
	c.applyAwl()

	assert.True(t, c.awlApplied)
	assert.Equal(t, int64(24), c.asl)
	assert.Equal(t, int64(27), c.finalBase)
	assert.Equal(t, "1/9", c.share("wife").Fraction.String())
	assert.Equal(t, "1/8", c.share("wife").OriginalFraction.String())
	assert.Equal(t, "8/9", c.awlRatio.String())
}

func TestMinorUnitScale(t *testing.T) {
	assert.Equal(t, int32(2), minorUnitScale("SAR"))
	assert.Equal(t, int32(0), minorUnitScale("JPY"))
	assert.Equal(t, int32(3), minorUnitScale("KWD"))
	assert.Equal(t, int32(2), minorUnitScale("not-a-code"))
}

func TestScoreConfidence_Floor(t *testing.T) {
	c := newTestCalculation(t, fiqh.Shafii, models.HeirCounts{fiqh.Son: 1})
	c.awlApplied = true
	c.raddApplied = true
	c.bloodApplied = true
	c.specialCases = make([]models.SpecialCase, 3)
	c.scoreConfidence()

	// No shares were assigned, so the sum check also fires.
	assert.Equal(t, confidenceFloor, c.confidence)
	assert.Len(t, c.warnings, 1)
	assert.Equal(t, models.LevelError, c.steps[len(c.steps)-1].Level)
}

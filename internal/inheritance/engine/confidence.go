package engine

import (
	"math"

	"faraid/internal/inheritance/fraction"
	"faraid/internal/inheritance/models"
)

const (
	confidenceFloor = 0.80
	sumTolerance    = 0.001
)

// scoreConfidence runs stage 11.
func (c *calculation) scoreConfidence() {
	score := 1.0
	if c.awlApplied {
		score *= 0.98
	}
	if c.raddApplied {
		score *= 0.97
	}
	if c.bloodApplied {
		score *= 0.95
	}
	if len(c.specialCases) > 2 {
		score *= 0.96
	}
	if len(c.blocked) > 3 {
		score *= 0.98
	}

	total := c.allocated()
	if drift := math.Abs(fraction.One.Sub(total).Float64()); drift > sumTolerance {
		score *= 0.90
		c.warn("shares total %s of the estate instead of 100%%", total.Percent())
		c.step("Consistency", "fractional shares do not sum to one", models.LevelError)
	}

	c.confidence = math.Max(confidenceFloor, score)
}

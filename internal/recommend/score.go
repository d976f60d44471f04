package recommend

import (
	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/catalog"
)

const durationBonus = 0.015

// scoredItem pairs an index item with its query score. The item pointer is
// the identity used by the diversity containment scan.
type scoredItem struct {
	item  *catalog.Item
	score float64
}

// scoreItem combines cosine similarity with the duration and intent
// adjustments. Both vectors are unit length, so the dot product is the
// cosine.
func scoreItem(queryVec []float32, weights map[string]float64, c *Constraint, item *catalog.Item) float64 {
	score := ai.Dot(queryVec, item.Embedding)
	score += durationAdjust(c, item)
	score += intentBoost(weights, item.TestTypes)
	return score
}

// durationAdjust nudges the score by whether the item's duration fits the
// constraint window: +durationBonus inside, -durationBonus outside, and for
// bounded variants a growing penalty the further the duration exceeds the
// maximum. Items with unknown duration are never adjusted or excluded.
func durationAdjust(c *Constraint, item *catalog.Item) float64 {
	if c == nil {
		return 0
	}

	dur, ok := item.Duration()
	if !ok {
		return 0
	}

	lo, hi := c.Window()

	adjust := -durationBonus
	if dur >= lo && dur <= hi {
		adjust = durationBonus
	}

	if hardMax, ok := c.HardMax(); ok && dur > hardMax {
		over := (dur - hardMax) / 300
		if over > 0.02 {
			over = 0.02
		}
		adjust -= over
	}

	return adjust
}

package recommend

import (
	"regexp"
	"strings"
)

// The reranker only activates when the query asks for both hard and soft
// skills at once; a purely technical or purely behavioral query keeps the
// plain score order.
var (
	hardSkillsRe = regexp.MustCompile(`\b(?:developer|engineer|programm\w+|coding|software|technical|java|python|sql|javascript|typescript|golang)\b`)
	softSkillsRe = regexp.MustCompile(`\b(?:collaborat\w*|communicat\w*|teamwork|interpersonal|soft skills?|stakeholders?|business teams?|leadership)\b`)
)

// rerank interleaves knowledge-heavy and personality-heavy candidates so a
// mixed query surfaces both kinds near the top. Inactive queries get the
// plain top k. Input must be sorted by score descending; output holds at most
// k candidates with no duplicates.
func rerank(sorted []scoredItem, k int, query string) []scoredItem {
	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}

	q := strings.ToLower(query)
	if !hardSkillsRe.MatchString(q) || !softSkillsRe.MatchString(q) {
		return sorted[:k]
	}

	var kGroup, pGroup, rest []scoredItem
	for _, cand := range sorted {
		switch {
		case cand.item.HasTestType("K"):
			kGroup = append(kGroup, cand)
		case cand.item.HasTestType("P"):
			pGroup = append(pGroup, cand)
		default:
			rest = append(rest, cand)
		}
	}

	out := make([]scoredItem, 0, k)
	for i := 0; len(out) < k && (i < len(kGroup) || i < len(pGroup)); i++ {
		if i < len(kGroup) {
			out = append(out, kGroup[i])
		}
		if i < len(pGroup) && len(out) < k {
			out = append(out, pGroup[i])
		}
	}

	for _, group := range [][]scoredItem{kGroup, pGroup, rest} {
		for _, cand := range group {
			if len(out) >= k {
				return out
			}
			if !containsItem(out, cand) {
				out = append(out, cand)
			}
		}
	}

	return out
}

// containsItem scans linearly by item identity. Quadratic over k, which is
// capped at 10.
func containsItem(list []scoredItem, cand scoredItem) bool {
	for _, existing := range list {
		if existing.item == cand.item {
			return true
		}
	}
	return false
}

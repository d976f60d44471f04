package recommend

import (
	"math"
	"regexp"
	"strings"
)

// maxIntentBoost bounds the total intent contribution per item.
const maxIntentBoost = 0.03

// intentRule boosts test type codes when the query signals a hiring intent.
type intentRule struct {
	pattern *regexp.Regexp
	codes   []string
	weight  float64
}

// intentRules maps query phrasing to category weights. A table edit tunes the
// boosts; no scoring code changes.
var intentRules = []intentRule{
	{regexp.MustCompile(`\b(?:culture|cultural|values)\b`), []string{"P", "B"}, 0.015},
	{regexp.MustCompile(`\b(?:personality|behaviou?r(?:al)?|leadership|collaborat\w*|communicat\w*|teamwork|interpersonal|soft skills?)\b`), []string{"P", "C"}, 0.02},
	{regexp.MustCompile(`\b(?:cognitive|aptitude|reasoning|numerical|verbal|inductive|deductive)\b`), []string{"A"}, 0.02},
	{regexp.MustCompile(`\b(?:admin(?:istrative)?|clerical|data entry|typing)\b`), []string{"A", "K"}, 0.015},
	{regexp.MustCompile(`\b(?:sales|account manager|customer|client[- ]facing|business development)\b`), []string{"P", "C", "B"}, 0.015},
	{regexp.MustCompile(`\b(?:sales|customer)\b`), []string{"S"}, 0.005},
	{regexp.MustCompile(`\b(?:developer|engineer|programm\w+|coding|software|technical|java|python|sql|javascript|typescript|golang)\b`), []string{"K"}, 0.02},
	{regexp.MustCompile(`\bsimulations?\b`), []string{"S"}, 0.02},
}

// intentWeights accumulates matched rule weight per test type code.
func intentWeights(query string) map[string]float64 {
	q := strings.ToLower(query)

	weights := make(map[string]float64)
	for _, rule := range intentRules {
		if rule.pattern.MatchString(q) {
			for _, code := range rule.codes {
				weights[code] += rule.weight
			}
		}
	}
	return weights
}

// intentBoost sums the weights of the codes the item carries, dampened by the
// square root of the code count so broad multi-category items are not
// overcounted, then clamps the magnitude to maxIntentBoost.
func intentBoost(weights map[string]float64, codes []string) float64 {
	if len(weights) == 0 || len(codes) == 0 {
		return 0
	}

	var sum float64
	for _, code := range codes {
		sum += weights[code]
	}
	if sum == 0 {
		return 0
	}

	boost := sum / math.Sqrt(float64(len(codes)))
	if boost > maxIntentBoost {
		boost = maxIntentBoost
	}
	if boost < -maxIntentBoost {
		boost = -maxIntentBoost
	}
	return boost
}

// Package recommend scores the assessment catalog against free-form hiring
// queries: query vector construction, duration constraints, intent boosts,
// and the diversity reranker live here.
package recommend

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ConstraintKind enumerates the duration constraint variants.
type ConstraintKind string

const (
	KindRange  ConstraintKind = "range"
	KindMax    ConstraintKind = "max"
	KindMin    ConstraintKind = "min"
	KindTarget ConstraintKind = "target"
)

// Constraint is a duration requirement parsed from the query, in minutes.
type Constraint struct {
	Kind      ConstraintKind
	Min       float64
	Max       float64
	Target    float64
	Tolerance float64
}

// Window returns the effective [lo, hi] minute window for the constraint.
// Variants without a bound fill min=0 or max=+Inf.
func (c *Constraint) Window() (float64, float64) {
	switch c.Kind {
	case KindRange:
		return c.Min, c.Max
	case KindMax:
		return 0, c.Max
	case KindMin:
		return c.Min, math.Inf(1)
	case KindTarget:
		lo := c.Target - c.Tolerance
		if lo < 0 {
			lo = 0
		}
		return lo, c.Target + c.Tolerance
	}
	return 0, math.Inf(1)
}

// HardMax returns the upper bound used for the over-limit penalty and whether
// the variant has one. Only max and range constraints penalize beyond the
// window adjustment.
func (c *Constraint) HardMax() (float64, bool) {
	switch c.Kind {
	case KindRange, KindMax:
		return c.Max, true
	}
	return 0, false
}

const (
	numberPat = `(\d+(?:\.\d+)?)`
	unitPat   = `(minutes?|mins?|hours?|hrs?)`
)

var (
	reAboutHour = regexp.MustCompile(`\b(?:about|around|approximately)\s+an?\s+hour\b`)
	reRange     = regexp.MustCompile(`\b` + numberPat + `\s*(?:-|to)\s*` + numberPat + `\s*` + unitPat + `\b`)
	reMax       = regexp.MustCompile(`(?:\b(?:at most|no more than|not more than|under|within|up to|less than|max(?:imum)?(?:\s+of)?)\s*|<=\s*)` + numberPat + `\s*` + unitPat + `\b`)
	reMin       = regexp.MustCompile(`(?:\b(?:at least|no less than|more than|over|minimum(?:\s+of)?)\s*|>=\s*)` + numberPat + `\s*` + unitPat + `\b`)
	reApprox    = regexp.MustCompile(`(?:\b(?:about|around|approximately)\s*|~\s*)` + numberPat + `\s*` + unitPat + `\b`)
	reBare      = regexp.MustCompile(`\b` + numberPat + `\s*` + unitPat + `\b`)
	reHourWord  = regexp.MustCompile(`\b(?:hours?|hrs?)\b`)
)

// ParseConstraint extracts a duration requirement from query text. Rules are
// tried in priority order and the first matching rule wins; no match returns
// nil, in which case duration has no effect on scoring.
func ParseConstraint(query string) *Constraint {
	q := strings.ToLower(query)

	if reAboutHour.MatchString(q) {
		return &Constraint{Kind: KindTarget, Target: 60, Tolerance: 15}
	}

	if m := reRange.FindStringSubmatch(q); m != nil {
		a, errA := strconv.ParseFloat(m[1], 64)
		b, errB := strconv.ParseFloat(m[2], 64)
		if errA == nil && errB == nil {
			lo, hi := toMinutes(a, m[3]), toMinutes(b, m[3])
			if lo > hi {
				lo, hi = hi, lo
			}
			return &Constraint{Kind: KindRange, Min: lo, Max: hi}
		}
	}

	if m := reMax.FindStringSubmatch(q); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &Constraint{Kind: KindMax, Max: toMinutes(v, m[2])}
		}
	}

	if m := reMin.FindStringSubmatch(q); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &Constraint{Kind: KindMin, Min: toMinutes(v, m[2])}
		}
	}

	if m := reApprox.FindStringSubmatch(q); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			target := toMinutes(v, m[2])
			return &Constraint{Kind: KindTarget, Target: target, Tolerance: targetTolerance(target)}
		}
	}

	if m := reBare.FindStringSubmatch(q); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			target := toMinutes(v, m[2])
			return &Constraint{Kind: KindTarget, Target: target, Tolerance: targetTolerance(target)}
		}
	}

	if reHourWord.MatchString(q) {
		return &Constraint{Kind: KindTarget, Target: 60, Tolerance: 15}
	}

	return nil
}

// toMinutes converts a parsed value to minutes. Units starting "hour" or "hr"
// multiply by 60 and round to the nearest minute; anything else is already
// minutes.
func toMinutes(value float64, unit string) float64 {
	if strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr") {
		return math.Round(value * 60)
	}
	return value
}

func targetTolerance(target float64) float64 {
	tol := math.Round(target * 0.25)
	if tol < 10 {
		tol = 10
	}
	return tol
}

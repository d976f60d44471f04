package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// testTypeNames expands the single-letter category codes used by the product
// catalog into their display names.
var testTypeNames = map[string]string{
	"K": "Knowledge & Skills",
	"P": "Personality & Behavior",
	"A": "Ability & Aptitude",
	"S": "Simulations",
	"C": "Competencies",
	"B": "Biodata & Situational Judgement",
	"D": "Development & 360",
	"E": "Assessment Exercises",
}

// TypeName returns the display name for a test type code. Unknown codes are
// returned unchanged so new catalog categories degrade gracefully.
func TypeName(code string) string {
	if name, ok := testTypeNames[code]; ok {
		return name
	}
	return code
}

// Item is one assessment from the product catalog. Embedding is only present
// on items inside a built Index.
type Item struct {
	EntityID        string    `json:"entityId" mapstructure:"entityId"`
	Name            string    `json:"name" mapstructure:"name"`
	URL             string    `json:"url" mapstructure:"url"`
	RemoteTesting   bool      `json:"remoteTesting" mapstructure:"remoteTesting"`
	AdaptiveIRT     bool      `json:"adaptiveIrt" mapstructure:"adaptiveIrt"`
	TestTypes       []string  `json:"testTypes" mapstructure:"testTypes"`
	DurationMinutes *float64  `json:"durationMinutes,omitempty" mapstructure:"-"`
	Description     string    `json:"description,omitempty" mapstructure:"description"`
	Embedding       []float32 `json:"embedding,omitempty" mapstructure:"embedding"`
}

// HasTestType reports whether the item carries the given category code.
func (i *Item) HasTestType(code string) bool {
	for _, c := range i.TestTypes {
		if c == code {
			return true
		}
	}
	return false
}

// Duration returns the item duration in minutes and whether it is known.
func (i *Item) Duration() (float64, bool) {
	if i.DurationMinutes == nil {
		return 0, false
	}
	return *i.DurationMinutes, true
}

// EmbeddingText composes the deterministic text an item is embedded from:
// name, expanded test type names, testing mode phrases, duration and
// description. Identical items always produce identical text, which keeps
// index builds reproducible.
func (i *Item) EmbeddingText() string {
	parts := []string{strings.TrimSpace(i.Name)}

	if len(i.TestTypes) > 0 {
		names := make([]string, 0, len(i.TestTypes))
		for _, code := range i.TestTypes {
			names = append(names, TypeName(code))
		}
		parts = append(parts, "Test types: "+strings.Join(names, ", "))
	}

	if i.RemoteTesting {
		parts = append(parts, "Supports remote testing")
	}
	if i.AdaptiveIRT {
		parts = append(parts, "Adaptive IRT assessment")
	}

	if dur, ok := i.Duration(); ok {
		parts = append(parts, fmt.Sprintf("Approximate duration %d minutes", int(dur)))
	}

	if desc := strings.TrimSpace(i.Description); desc != "" {
		parts = append(parts, desc)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ". ")
}

// normalizeTestTypes trims, uppercases and deduplicates category codes,
// keeping them sorted for stable output.
func normalizeTestTypes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

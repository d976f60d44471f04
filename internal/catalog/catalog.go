// Package catalog holds the assessment catalog model: items scraped from the
// product catalog, the embedded index built from them, and the JSON
// persistence for both.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LoadItems reads a catalog JSON array from disk. The decode is deliberately
// loose: scraped files may carry durations as numbers, numeric strings, or
// junk such as "N/A". Junk coerces to an absent duration, never an error.
func LoadItems(path string) ([]*Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer file.Close()

	var raw []map[string]any
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", path, err)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", path, err)
	}

	return items, nil
}

func decodeItems(raw []map[string]any) ([]*Item, error) {
	entries := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	durations := make([]*float64, len(entries))
	for idx, entry := range entries {
		durations[idx] = coerceDuration(entry["durationMinutes"])
		delete(entry, "durationMinutes")
	}

	var items []*Item
	if err := mapstructure.Decode(entries, &items); err != nil {
		return nil, err
	}

	for idx, item := range items {
		item.DurationMinutes = durations[idx]
		item.TestTypes = normalizeTestTypes(item.TestTypes)
	}

	return items, nil
}

// SaveItems writes the catalog JSON array, creating parent directories as
// needed.
func SaveItems(path string, items []*Item) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode catalog %q: %w", path, err)
	}

	return nil
}

// coerceDuration converts a loosely typed duration value to minutes. Negative
// values, NaN, infinities and anything non-numeric coerce to absent.
func coerceDuration(v any) *float64 {
	var f float64

	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}

	return &f
}

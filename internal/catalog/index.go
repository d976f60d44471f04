package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/shl-recommender/internal/ai"
)

// DefaultIndexPath is where index commands read and write the index unless
// told otherwise.
const DefaultIndexPath = "data/index.json"

// Index is the embedded catalog persisted as a single JSON document. It is
// loaded once at startup and never mutated afterwards, so it is safe to share
// across concurrent requests.
type Index struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Dim      int     `json:"dim"`
	Items    []*Item `json:"items"`
}

// LoadIndex reads and validates an index document.
func LoadIndex(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", path, err)
	}
	defer file.Close()

	var idx Index
	if err := json.NewDecoder(file).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index %q: %w", path, err)
	}

	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("validate index %q: %w", path, err)
	}

	return &idx, nil
}

// Save writes the index document, creating parent directories as needed.
func (i *Index) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open index %q: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(i); err != nil {
		return fmt.Errorf("encode index %q: %w", path, err)
	}

	return nil
}

// Validate checks the index invariants: a known provider, a model tag, a
// positive dimension, and per item an embedding of the index dimension, no
// duplicate test type codes and a sane duration.
func (i *Index) Validate() error {
	switch i.Provider {
	case ai.ProviderRemote, ai.ProviderLocal:
	default:
		return fmt.Errorf("unknown provider %q", i.Provider)
	}

	if strings.TrimSpace(i.Model) == "" {
		return errors.New("model is required")
	}

	if i.Dim <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", i.Dim)
	}

	for idx, item := range i.Items {
		if item == nil {
			return fmt.Errorf("item %d is nil", idx)
		}

		if len(item.Embedding) != i.Dim {
			return fmt.Errorf("item %q: embedding length %d does not match index dimension %d",
				item.Name, len(item.Embedding), i.Dim)
		}

		if dur, ok := item.Duration(); ok && (dur < 0 || math.IsNaN(dur) || math.IsInf(dur, 0)) {
			return fmt.Errorf("item %q: invalid duration %v", item.Name, dur)
		}

		seen := make(map[string]struct{}, len(item.TestTypes))
		for _, code := range item.TestTypes {
			if _, ok := seen[code]; ok {
				return fmt.Errorf("item %q: duplicate test type %q", item.Name, code)
			}
			seen[code] = struct{}{}
		}
	}

	return nil
}

func (i *Index) Len() int {
	return len(i.Items)
}

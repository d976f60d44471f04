package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/logger"
	"github.com/spigell/shl-recommender/internal/summary"
	"go.uber.org/zap"
)

const (
	// DefaultTopK is used when the requested result count is invalid.
	DefaultTopK = 10
	// MaxTopK caps the result count.
	MaxTopK = 10

	defaultOriginalWeight = 0.75
	defaultSummaryWeight  = 0.25
)

// ClampTopK normalizes a requested result count: anything outside [1, MaxTopK]
// becomes DefaultTopK. Callers at the edges (CLI, HTTP) clamp before handing
// the value to Recommend.
func ClampTopK(k int) int {
	if k < 1 || k > MaxTopK {
		return DefaultTopK
	}
	return k
}

// QuerySummarizer is the slice of the summarizer the recommender needs.
type QuerySummarizer interface {
	Summarize(ctx context.Context, text string) string
}

// Config tunes the recommender. Zero values fall back to defaults.
type Config struct {
	// TopK is the result count used when a request does not carry one.
	TopK int
	// OriginalWeight and SummaryWeight blend the base query vector with the
	// summary vector. They default to 0.75/0.25.
	OriginalWeight float64
	SummaryWeight  float64
}

// Deps are the recommender's collaborators. Index and Embedder are required;
// a nil Summarizer disables the summary blend.
type Deps struct {
	Index      *catalog.Index
	Embedder   ai.Embedder
	Summarizer QuerySummarizer
	Logger     *zap.Logger
}

// Result is one recommended assessment.
type Result struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	RemoteTesting   bool     `json:"remoteTesting"`
	AdaptiveIRT     bool     `json:"adaptiveIrt"`
	TestTypes       []string `json:"testTypes"`
	DurationMinutes *float64 `json:"durationMinutes,omitempty"`
	Score           float64  `json:"score"`
}

// Recommender evaluates queries against a loaded index.
type Recommender struct {
	cfg        Config
	index      *catalog.Index
	embedder   ai.Embedder
	summarizer QuerySummarizer
	logger     *zap.Logger
}

// New validates the wiring and returns a Recommender.
func New(cfg Config, deps Deps) (*Recommender, error) {
	if deps.Index == nil {
		return nil, errors.New("index is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if deps.Embedder.Dim() != deps.Index.Dim {
		return nil, fmt.Errorf("embedder dimension %d does not match index dimension %d",
			deps.Embedder.Dim(), deps.Index.Dim)
	}

	if cfg.TopK < 1 || cfg.TopK > MaxTopK {
		cfg.TopK = DefaultTopK
	}
	if cfg.OriginalWeight <= 0 {
		cfg.OriginalWeight = defaultOriginalWeight
	}
	if cfg.SummaryWeight <= 0 {
		cfg.SummaryWeight = defaultSummaryWeight
	}
	return &Recommender{
		cfg:        cfg,
		index:      deps.Index,
		embedder:   deps.Embedder,
		summarizer: deps.Summarizer,
		logger:     logger.WithProviderFields(deps.Logger, deps.Index.Provider, deps.Index.Model),
	}, nil
}

// Recommend scores every catalog item against the query and returns the top
// results. Scoring walks the catalog in order and sorts stably, so equal
// scores keep catalog order and identical input always produces identical
// output. topK is trusted here; callers clamp.
func (r *Recommender) Recommend(ctx context.Context, query string, topK int, balance bool) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if topK < 1 {
		topK = r.cfg.TopK
	}

	started := time.Now()

	queryVec, err := r.buildQueryVector(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("build query vector: %w", err)
	}

	constraint := ParseConstraint(query)
	if constraint != nil {
		lo, hi := constraint.Window()
		r.logger.Debug("duration constraint parsed",
			zap.String("kind", string(constraint.Kind)),
			zap.Float64("window_min", lo),
			zap.Float64("window_max", hi),
		)
	}

	weights := intentWeights(query)
	if len(weights) > 0 {
		r.logger.Debug("intent boosts active", zap.Int("codes", len(weights)))
	}

	scored := make([]scoredItem, 0, r.index.Len())
	for _, item := range r.index.Items {
		scored = append(scored, scoredItem{
			item:  item,
			score: scoreItem(queryVec, weights, constraint, item),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if balance {
		scored = rerank(scored, topK, query)
	} else if topK < len(scored) {
		scored = scored[:topK]
	}

	results := make([]Result, 0, len(scored))
	for _, cand := range scored {
		results = append(results, Result{
			Name:            cand.item.Name,
			URL:             cand.item.URL,
			RemoteTesting:   cand.item.RemoteTesting,
			AdaptiveIRT:     cand.item.AdaptiveIRT,
			TestTypes:       cand.item.TestTypes,
			DurationMinutes: cand.item.DurationMinutes,
			Score:           cand.score,
		})
	}

	r.logger.Info("recommendation complete",
		zap.Int("catalog_items", r.index.Len()),
		zap.Int("results", len(results)),
		zap.Bool("balance", balance),
		zap.Bool("duration_constraint", constraint != nil),
		zap.Duration("elapsed", time.Since(started)),
	)

	return results, nil
}

// buildQueryVector embeds the query and, for long queries on the remote
// provider, blends in the embedded keyword summary. Long job descriptions
// dilute the embedding with boilerplate; the summary sharpens retrieval while
// the base vector keeps the nuance the summary drops.
func (r *Recommender) buildQueryVector(ctx context.Context, query string) ([]float32, error) {
	base, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.index.Provider != ai.ProviderRemote || r.summarizer == nil || !summary.NeedsSummary(query) {
		return base, nil
	}

	line := r.summarizer.Summarize(ctx, query)
	if line == "" || line == summary.NoSummary {
		return base, nil
	}

	summaryVec, err := r.embedder.Embed(ctx, line)
	if err != nil {
		r.logger.Warn("summary embedding failed, using base vector", zap.Error(err))
		return base, nil
	}

	combined := make([]float32, len(base))
	for i := range base {
		combined[i] = float32(r.cfg.OriginalWeight)*base[i] + float32(r.cfg.SummaryWeight)*summaryVec[i]
	}

	return ai.NormalizeL2(combined), nil
}

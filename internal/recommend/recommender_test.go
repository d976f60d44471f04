package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/summary"
)

type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	errOn   string
	calls   []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls = append(s.calls, text)
	if s.errOn != "" && text == s.errOn {
		return nil, errors.New("embed failed")
	}
	if vec, ok := s.vectors[text]; ok {
		return append([]float32(nil), vec...), nil
	}
	return nil, fmt.Errorf("unexpected embed text: %q", text)
}

func (s *stubEmbedder) Model() string { return "stub-embed" }

func (s *stubEmbedder) Dim() int { return s.dim }

type stubSummarizer struct {
	line  string
	calls int
}

func (s *stubSummarizer) Summarize(context.Context, string) string {
	s.calls++
	return s.line
}

// longQuery is padded past the summarization threshold.
var longQuery = strings.TrimSpace(strings.Repeat("looking for a java developer assessment ", 13))

const summaryLine = "java developer, coding, mid-level"

func testIndex(provider string, items ...*catalog.Item) *catalog.Index {
	return &catalog.Index{Provider: provider, Model: "stub-embed", Dim: 2, Items: items}
}

func knowledgeItem() *catalog.Item {
	return &catalog.Item{
		EntityID:        "1001",
		Name:            "Java Programming",
		URL:             "https://example.com/java",
		RemoteTesting:   true,
		TestTypes:       []string{"K"},
		DurationMinutes: floatPtr(30),
		Embedding:       []float32{1, 0},
	}
}

func personalityItem() *catalog.Item {
	return &catalog.Item{
		EntityID:    "1002",
		Name:        "Workplace Personality",
		URL:         "https://example.com/personality",
		AdaptiveIRT: true,
		TestTypes:   []string{"P"},
		Embedding:   []float32{0, 1},
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{dim: 2}
	index := testIndex(ai.ProviderLocal, knowledgeItem())

	t.Run("missing index", func(t *testing.T) {
		t.Parallel()

		if _, err := New(Config{}, Deps{Embedder: embedder}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing embedder", func(t *testing.T) {
		t.Parallel()

		if _, err := New(Config{}, Deps{Index: index}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{}, Deps{Index: index, Embedder: &stubEmbedder{dim: 768}})
		if err == nil || !strings.Contains(err.Error(), "dimension") {
			t.Fatalf("expected dimension mismatch error, got %v", err)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Parallel()

		rec, err := New(Config{}, Deps{Index: index, Embedder: embedder})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.cfg.TopK != DefaultTopK {
			t.Fatalf("expected default top k, got %d", rec.cfg.TopK)
		}
		if rec.cfg.OriginalWeight != 0.75 || rec.cfg.SummaryWeight != 0.25 {
			t.Fatalf("expected default blend weights, got %v/%v", rec.cfg.OriginalWeight, rec.cfg.SummaryWeight)
		}
	})
}

func TestRecommendSummaryBlend(t *testing.T) {
	t.Parallel()

	t.Run("long remote query blends the summary vector", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{dim: 2, vectors: map[string][]float32{
			longQuery:   {1, 0},
			summaryLine: {0, 1},
		}}
		summarizer := &stubSummarizer{line: summaryLine}
		rec, err := New(Config{}, Deps{
			Index:      testIndex(ai.ProviderRemote, knowledgeItem(), personalityItem()),
			Embedder:   embedder,
			Summarizer: summarizer,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, err := rec.Recommend(context.Background(), longQuery, 2, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if summarizer.calls != 1 {
			t.Fatalf("expected one summarize call, got %d", summarizer.calls)
		}
		if !reflect.DeepEqual(embedder.calls, []string{longQuery, summaryLine}) {
			t.Fatalf("unexpected embed calls: %v", embedder.calls)
		}

		if results[0].Name != "Java Programming" {
			t.Fatalf("expected java item first, got %s", results[0].Name)
		}
		// Blended vector is normalize(0.75*[1,0] + 0.25*[0,1]); the java item
		// also carries the intent boost and the personality item does not.
		wantTop := 0.75/math.Sqrt(0.625) + 0.02
		if math.Abs(results[0].Score-wantTop) > 1e-3 {
			t.Fatalf("expected top score near %v, got %v", wantTop, results[0].Score)
		}
		wantSecond := 0.25 / math.Sqrt(0.625)
		if math.Abs(results[1].Score-wantSecond) > 1e-3 {
			t.Fatalf("expected second score near %v, got %v", wantSecond, results[1].Score)
		}
	})

	t.Run("sentinel summary skips the blend", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{dim: 2, vectors: map[string][]float32{longQuery: {1, 0}}}
		summarizer := &stubSummarizer{line: summary.NoSummary}
		rec, err := New(Config{}, Deps{
			Index:      testIndex(ai.ProviderRemote, knowledgeItem()),
			Embedder:   embedder,
			Summarizer: summarizer,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := rec.Recommend(context.Background(), longQuery, 1, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(embedder.calls) != 1 {
			t.Fatalf("expected single embed call, got %v", embedder.calls)
		}
	})

	t.Run("short query is never summarized", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{dim: 2, vectors: map[string][]float32{"java developer": {1, 0}}}
		summarizer := &stubSummarizer{line: summaryLine}
		rec, err := New(Config{}, Deps{
			Index:      testIndex(ai.ProviderRemote, knowledgeItem()),
			Embedder:   embedder,
			Summarizer: summarizer,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := rec.Recommend(context.Background(), "java developer", 1, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summarizer.calls != 0 {
			t.Fatalf("expected no summarize calls, got %d", summarizer.calls)
		}
	})

	t.Run("local index is never summarized", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{dim: 2, vectors: map[string][]float32{longQuery: {1, 0}}}
		summarizer := &stubSummarizer{line: summaryLine}
		rec, err := New(Config{}, Deps{
			Index:      testIndex(ai.ProviderLocal, knowledgeItem()),
			Embedder:   embedder,
			Summarizer: summarizer,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := rec.Recommend(context.Background(), longQuery, 1, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summarizer.calls != 0 {
			t.Fatalf("expected no summarize calls, got %d", summarizer.calls)
		}
	})

	t.Run("summary embedding failure falls back to the base vector", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{
			dim:     2,
			vectors: map[string][]float32{longQuery: {1, 0}},
			errOn:   summaryLine,
		}
		rec, err := New(Config{}, Deps{
			Index:      testIndex(ai.ProviderRemote, knowledgeItem()),
			Embedder:   embedder,
			Summarizer: &stubSummarizer{line: summaryLine},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, err := rec.Recommend(context.Background(), longQuery, 1, false)
		if err != nil {
			t.Fatalf("expected fallback, got error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected one result, got %d", len(results))
		}
		if want := 1.0 + 0.02; math.Abs(results[0].Score-want) > 1e-3 {
			t.Fatalf("expected base-vector score near %v, got %v", want, results[0].Score)
		}
	})

	t.Run("base embedding failure is fatal", func(t *testing.T) {
		t.Parallel()

		embedder := &stubEmbedder{dim: 2, errOn: "java developer"}
		rec, err := New(Config{}, Deps{
			Index:    testIndex(ai.ProviderRemote, knowledgeItem()),
			Embedder: embedder,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = rec.Recommend(context.Background(), "java developer", 1, false)
		if err == nil || !strings.Contains(err.Error(), "build query vector") {
			t.Fatalf("expected query vector error, got %v", err)
		}
	})
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	newLocalRecommender := func(t *testing.T, vectors map[string][]float32, items ...*catalog.Item) *Recommender {
		t.Helper()

		rec, err := New(Config{}, Deps{
			Index:    testIndex(ai.ProviderLocal, items...),
			Embedder: &stubEmbedder{dim: 2, vectors: vectors},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec
	}

	t.Run("empty query is rejected", func(t *testing.T) {
		t.Parallel()

		rec := newLocalRecommender(t, nil, knowledgeItem())
		if _, err := rec.Recommend(context.Background(), "   ", 5, false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("results are capped at top k", func(t *testing.T) {
		t.Parallel()

		rec := newLocalRecommender(t,
			map[string][]float32{"personality screen": {0, 1}},
			knowledgeItem(), personalityItem(),
		)

		results, err := rec.Recommend(context.Background(), "personality screen", 1, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].Name != "Workplace Personality" {
			t.Fatalf("expected only the personality item, got %v", results)
		}
	})

	t.Run("non-positive top k falls back to config", func(t *testing.T) {
		t.Parallel()

		rec := newLocalRecommender(t,
			map[string][]float32{"personality screen": {0, 1}},
			knowledgeItem(), personalityItem(),
		)

		results, err := rec.Recommend(context.Background(), "personality screen", 0, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected the whole catalog, got %d results", len(results))
		}
	})

	t.Run("equal scores keep catalog order", func(t *testing.T) {
		t.Parallel()

		first := &catalog.Item{EntityID: "1", Name: "First", Embedding: []float32{1, 0}}
		second := &catalog.Item{EntityID: "2", Name: "Second", Embedding: []float32{1, 0}}
		rec := newLocalRecommender(t,
			map[string][]float32{"general screen": {1, 0}},
			first, second,
		)

		results, err := rec.Recommend(context.Background(), "general screen", 2, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Name != "First" || results[1].Name != "Second" {
			t.Fatalf("expected catalog order preserved, got %v", results)
		}
	})

	t.Run("identical calls produce identical results", func(t *testing.T) {
		t.Parallel()

		rec := newLocalRecommender(t,
			map[string][]float32{"java developer under 40 minutes": {1, 0}},
			knowledgeItem(), personalityItem(),
		)

		first, err := rec.Recommend(context.Background(), "java developer under 40 minutes", 2, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := rec.Recommend(context.Background(), "java developer under 40 minutes", 2, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected deterministic results, got %v then %v", first, second)
		}
	})

	t.Run("duration constraint rewards fitting items", func(t *testing.T) {
		t.Parallel()

		short := &catalog.Item{EntityID: "1", Name: "Short", DurationMinutes: floatPtr(20), Embedding: []float32{1, 0}}
		long := &catalog.Item{EntityID: "2", Name: "Long", DurationMinutes: floatPtr(90), Embedding: []float32{1, 0}}
		rec := newLocalRecommender(t,
			map[string][]float32{"screening at most 30 minutes": {1, 0}},
			long, short,
		)

		results, err := rec.Recommend(context.Background(), "screening at most 30 minutes", 2, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Name != "Short" {
			t.Fatalf("expected the fitting item first, got %v", results)
		}
		if results[0].Score <= results[1].Score {
			t.Fatalf("expected penalty on the long item: %v", results)
		}
	})

	t.Run("balance reranks a mixed query", func(t *testing.T) {
		t.Parallel()

		kOne := &catalog.Item{EntityID: "1", Name: "K1", TestTypes: []string{"K"}, Embedding: []float32{1, 0}}
		kTwo := &catalog.Item{EntityID: "2", Name: "K2", TestTypes: []string{"K"}, Embedding: []float32{1, 0}}
		p := &catalog.Item{EntityID: "3", Name: "P1", TestTypes: []string{"P"}, Embedding: []float32{0.5, 0.5}}
		rec := newLocalRecommender(t,
			map[string][]float32{mixedQuery: {1, 0}},
			kOne, kTwo, p,
		)

		balanced, err := rec.Recommend(context.Background(), mixedQuery, 2, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if balanced[0].Name != "K1" || balanced[1].Name != "P1" {
			t.Fatalf("expected interleaved results, got %v", balanced)
		}

		plain, err := rec.Recommend(context.Background(), mixedQuery, 2, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plain[0].Name != "K1" || plain[1].Name != "K2" {
			t.Fatalf("expected score order without balance, got %v", plain)
		}
	})

	t.Run("result carries the item fields", func(t *testing.T) {
		t.Parallel()

		rec := newLocalRecommender(t,
			map[string][]float32{"java": {1, 0}},
			knowledgeItem(),
		)

		results, err := rec.Recommend(context.Background(), "java", 1, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := results[0]
		if got.Name != "Java Programming" || got.URL != "https://example.com/java" {
			t.Fatalf("unexpected result: %+v", got)
		}
		if !got.RemoteTesting || got.AdaptiveIRT {
			t.Fatalf("expected remote testing only, got %+v", got)
		}
		if !reflect.DeepEqual(got.TestTypes, []string{"K"}) {
			t.Fatalf("unexpected test types: %v", got.TestTypes)
		}
		if got.DurationMinutes == nil || *got.DurationMinutes != 30 {
			t.Fatalf("unexpected duration: %v", got.DurationMinutes)
		}
	})
}

func TestClampTopK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     int
		expect int
	}{
		{in: -3, expect: DefaultTopK},
		{in: 0, expect: DefaultTopK},
		{in: 1, expect: 1},
		{in: 5, expect: 5},
		{in: 10, expect: 10},
		{in: 11, expect: DefaultTopK},
		{in: 15, expect: DefaultTopK},
	}

	for _, tt := range tests {
		if got := ClampTopK(tt.in); got != tt.expect {
			t.Fatalf("ClampTopK(%d): expected %d, got %d", tt.in, tt.expect, got)
		}
	}
}

package local

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	if got := New(0).Dim(); got != DefaultDim {
		t.Fatalf("expected default dim %d, got %d", DefaultDim, got)
	}
	if got := New(-5).Dim(); got != DefaultDim {
		t.Fatalf("expected default dim %d for negative input, got %d", DefaultDim, got)
	}
	if got := New(64).Dim(); got != 64 {
		t.Fatalf("expected dim 64, got %d", got)
	}
	if got := New(64).Model(); got != ModelName {
		t.Fatalf("expected model %q, got %q", ModelName, got)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "lowercases and splits",
			input:  "Senior Java Developer",
			expect: []string{"senior", "java", "developer"},
		},
		{
			name:   "keeps tech punctuation",
			input:  "C++ and C# with .NET, plus CI/CD",
			expect: []string{"c++", "and", "c#", "with", ".net", "plus", "ci/cd"},
		},
		{
			name:   "strips other punctuation",
			input:  "collaborate, communicate & lead!",
			expect: []string{"collaborate", "communicate", "lead"},
		},
		{
			name:   "drops empty tokens",
			input:  "  --  ??  ",
			expect: []string{},
		},
		{
			name:   "empty input",
			input:  "",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tokenize(tt.input)
			if len(got) == 0 && len(tt.expect) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		e := New(128)
		a, err := e.Embed(context.Background(), "Java developer with strong SQL skills")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := e.Embed(context.Background(), "Java developer with strong SQL skills")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("expected identical vectors for identical input")
		}
	})

	t.Run("unit norm", func(t *testing.T) {
		t.Parallel()

		e := New(128)
		vec, err := e.Embed(context.Background(), "personality assessment for sales teams")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 128 {
			t.Fatalf("expected dim 128, got %d", len(vec))
		}

		var norm float64
		for _, x := range vec {
			norm += float64(x) * float64(x)
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
			t.Fatalf("expected unit norm, got %v", math.Sqrt(norm))
		}
	})

	t.Run("empty text yields zero vector", func(t *testing.T) {
		t.Parallel()

		e := New(32)
		vec, err := e.Embed(context.Background(), "  !!  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 32 {
			t.Fatalf("expected dim 32, got %d", len(vec))
		}
		for i, x := range vec {
			if x != 0 {
				t.Fatalf("expected zero vector, found %v at %d", x, i)
			}
		}
	})

	t.Run("different text yields different vectors", func(t *testing.T) {
		t.Parallel()

		e := New(128)
		a, _ := e.Embed(context.Background(), "cognitive ability test")
		b, _ := e.Embed(context.Background(), "sales personality questionnaire")
		if reflect.DeepEqual(a, b) {
			t.Fatalf("expected distinct vectors for distinct input")
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()

		e := New(128)
		a, _ := e.Embed(context.Background(), "JAVA Developer")
		b, _ := e.Embed(context.Background(), "java developer")
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("expected case-insensitive embedding")
		}
	})
}

func TestBucketInRange(t *testing.T) {
	t.Parallel()

	e := New(16)
	for _, token := range []string{"a", "java", "c++", "assessment", "0", "x/y", "....", "zzzzzzzzzzzzzzzz"} {
		idx := e.bucket(token)
		if idx < 0 || idx >= 16 {
			t.Fatalf("bucket out of range for %q: %d", token, idx)
		}
	}
}

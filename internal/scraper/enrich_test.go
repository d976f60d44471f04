package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/shl-recommender/internal/catalog"
)

const productPage = `<!DOCTYPE html>
<html><body>
<div class="product-catalogue-training-calendar__row">
  <h4>Description</h4>
  <p>Multi-choice test that measures the knowledge of Java programming basics.</p>
</div>
<div class="product-catalogue-training-calendar__row">
  <h4>Assessment length</h4>
  <p>Approximate Completion Time in minutes = 30</p>
</div>
</body></html>`

const productPageBare = `<!DOCTYPE html>
<html><body><div class="hero">Nothing useful here.</div></body></html>`

func TestEnrich(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/view/java/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, productPage)
	})
	mux.HandleFunc("/view/bare/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, productPageBare)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := testClient(t, server)

	full := &catalog.Item{EntityID: "1001", Name: "Java Programming", URL: server.URL + "/view/java/"}
	bare := &catalog.Item{EntityID: "1002", Name: "Bare", URL: server.URL + "/view/bare/"}
	unlinked := &catalog.Item{EntityID: "1003", Name: "Unlinked"}

	if err := c.Enrich([]*catalog.Item{full, bare, unlinked, nil}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if full.DurationMinutes == nil || *full.DurationMinutes != 30 {
		t.Fatalf("expected duration 30, got %v", full.DurationMinutes)
	}
	if !strings.Contains(full.Description, "Java programming") {
		t.Fatalf("unexpected description: %q", full.Description)
	}

	if bare.DurationMinutes != nil || bare.Description != "" {
		t.Fatalf("expected bare item untouched, got %+v", bare)
	}
	if unlinked.DurationMinutes != nil || unlinked.Description != "" {
		t.Fatalf("expected unlinked item untouched, got %+v", unlinked)
	}
}

func TestEnrichUnavailablePage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server)
	item := &catalog.Item{EntityID: "1001", Name: "Java Programming", URL: server.URL + "/view/java/"}

	if err := c.Enrich([]*catalog.Item{item}); err != nil {
		t.Fatalf("expected page failure to be tolerated, got %v", err)
	}
	if item.DurationMinutes != nil || item.Description != "" {
		t.Fatalf("expected item untouched, got %+v", item)
	}
}

func TestEnrichContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(t, server)
	c.ctx = ctx

	err := c.Enrich([]*catalog.Item{{EntityID: "1001", URL: server.URL + "/view/java/"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestEnrichItemFractionalDuration(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>Approximate Completion Time in minutes = 12.5</p></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := New(context.Background(), zap.NewNop())
	item := &catalog.Item{EntityID: "1"}
	c.enrichItem(item, doc)

	if item.DurationMinutes == nil || *item.DurationMinutes != 12.5 {
		t.Fatalf("expected fractional duration, got %v", item.DurationMinutes)
	}
}

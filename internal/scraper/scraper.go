// Package scraper collects the SHL assessment catalog from the public
// product pages.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/utils"
)

const (
	baseURL     = "https://www.shl.com"
	catalogPath = "/products/product-catalog/"
	userAgent   = "Mozilla/5.0 (compatible; shl-recommender)"

	// The catalog paginates individual assessments in steps of 12.
	pageStep       = 12
	typeIndividual = 1

	pageDelay     = 2 * time.Second
	fetchAttempts = 3
	fetchWait     = 5 * time.Second
	// A page failure is skipped, but this many skips in a row abort the run.
	maxFailedPages = 3
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string

	delay time.Duration
	retry utils.RetryConfig
}

func New(ctx context.Context, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		ctx:     ctx,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		delay:     pageDelay,
		retry: utils.RetryConfig{
			Attempts:   fetchAttempts,
			BaseDelay:  fetchWait,
			MaxDelay:   fetchWait,
			Multiplier: 1,
		},
	}
}

// ScrapeCatalog walks the paginated individual-assessment listing and returns
// every row in catalog order. A failing page is skipped after its retries;
// the run aborts once maxFailedPages pages in a row are lost.
func (c *Client) ScrapeCatalog() ([]*catalog.Item, error) {
	var items []*catalog.Item
	start := 0
	failed := 0

	for {
		pageURL := fmt.Sprintf("%s%s?start=%d&type=%d", c.BaseURL, catalogPath, start, typeIndividual)
		c.logger.Info("scraping catalog page", zap.Int("start", start))

		doc, err := c.fetchDocument(pageURL)
		if err != nil {
			if c.ctx.Err() != nil {
				return items, c.ctx.Err()
			}

			failed++
			if failed >= maxFailedPages {
				return items, fmt.Errorf("giving up after %d consecutive failed pages: %w", failed, err)
			}

			c.logger.Warn("skipping page after repeated failures", zap.String("url", pageURL), zap.Error(err))
			start += pageStep
			continue
		}
		failed = 0

		rows := doc.Find("tr[data-entity-id]")
		if rows.Length() == 0 {
			break
		}

		rows.Each(func(_ int, row *goquery.Selection) {
			if item := c.parseRow(row); item != nil {
				items = append(items, item)
			}
		})

		if doc.Find("li.pagination__item.-next a").Length() == 0 {
			break
		}

		start += pageStep
		if err := utils.WaitFor(c.ctx, c.delay); err != nil {
			return items, err
		}
	}

	c.logger.Info("catalog scraped", zap.Int("items", len(items)))

	return items, nil
}

func (c *Client) parseRow(row *goquery.Selection) *catalog.Item {
	entityID, ok := row.Attr("data-entity-id")
	if !ok {
		return nil
	}

	title := row.Find("td.custom__table-heading__title a").First()
	name := strings.TrimSpace(title.Text())
	if name == "" {
		return nil
	}
	href, _ := title.Attr("href")

	cols := row.Find("td.custom__table-heading__general")

	var types []string
	row.Find(".product-catalogue__key").Each(func(_ int, key *goquery.Selection) {
		if code := strings.TrimSpace(key.Text()); code != "" {
			types = append(types, code)
		}
	})

	return &catalog.Item{
		EntityID:      entityID,
		Name:          name,
		URL:           c.resolveURL(href),
		RemoteTesting: cols.Eq(0).Find(".-yes").Length() > 0,
		AdaptiveIRT:   cols.Eq(1).Find(".-yes").Length() > 0,
		TestTypes:     types,
	}
}

// resolveURL resolves a row's href against the catalog base.
func (c *Client) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}

func (c *Client) fetchDocument(pageURL string) (*goquery.Document, error) {
	return utils.Retry(c.ctx, c.retry, func() (*goquery.Document, error) {
		return c.getDocument(c.ctx, pageURL)
	})
}

func (c *Client) getDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/utils"
)

const defaultEnrichWorkers = 4

// durationRe matches the completion time line on a product page, e.g.
// "Approximate Completion Time in minutes = 30".
var durationRe = regexp.MustCompile(`Approximate Completion Time in minutes\s*=\s*(\d+(?:\.\d+)?)`)

// Enrich fetches every item's product page and fills in the approximate
// duration and the description. An unavailable or incomplete page leaves the
// item as scraped; only context cancellation aborts the run.
func (c *Client) Enrich(items []*catalog.Item) error {
	g, ctx := errgroup.WithContext(c.ctx)
	g.SetLimit(defaultEnrichWorkers)

	for _, item := range items {
		if item == nil || item.URL == "" {
			continue
		}

		g.Go(func() error {
			doc, err := utils.Retry(ctx, c.retry, func() (*goquery.Document, error) {
				return c.getDocument(ctx, item.URL)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("product page unavailable", zap.String("url", item.URL), zap.Error(err))
				return nil
			}

			c.enrichItem(item, doc)

			return nil
		})
	}

	return g.Wait()
}

func (c *Client) enrichItem(item *catalog.Item, doc *goquery.Document) {
	if m := durationRe.FindStringSubmatch(doc.Text()); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 {
			item.DurationMinutes = &v
		}
	}

	if desc := productDescription(doc); desc != "" {
		item.Description = desc
	}

	c.logger.Debug("item enriched",
		zap.String("entity_id", item.EntityID),
		zap.Bool("duration", item.DurationMinutes != nil),
		zap.Bool("description", item.Description != ""),
	)
}

// productDescription finds the labeled description row on a product page.
func productDescription(doc *goquery.Document) string {
	var desc string
	doc.Find("div.product-catalogue-training-calendar__row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("h4").First().Text())
		if !strings.EqualFold(label, "Description") {
			return true
		}

		desc = strings.TrimSpace(row.Find("p").First().Text())
		return false
	})

	return desc
}

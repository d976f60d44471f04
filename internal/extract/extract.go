// Package extract turns a web page, usually a job posting, into plain query
// text.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 20 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; shl-recommender)"

	// strippedTags never carry posting text.
	strippedTags = "script, style, nav, header, footer, noscript, iframe"
)

type Extractor struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
	}
}

// Text fetches the page and returns its readable content as markdown. When
// the markdown conversion fails the stripped body text is returned instead.
func (e *Extractor) Text(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.UserAgent)

	e.logger.Debug("make request", zap.String("url", pageURL))
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	return e.fromDocument(doc, pageURL)
}

func (e *Extractor) fromDocument(doc *goquery.Document, pageURL string) (string, error) {
	doc.Find(strippedTags).Remove()
	body := doc.Find("body").First()

	markdown, err := toMarkdown(body)
	if err != nil {
		e.logger.Warn("markdown conversion failed, falling back to plain text",
			zap.String("url", pageURL), zap.Error(err))
	}
	if markdown != "" {
		return markdown, nil
	}

	text := strings.Join(strings.Fields(body.Text()), " ")
	if text == "" {
		return "", fmt.Errorf("page %s has no readable text", pageURL)
	}

	return text, nil
}

func toMarkdown(body *goquery.Selection) (string, error) {
	html, err := body.Html()
	if err != nil {
		return "", err
	}

	markdown, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(markdown), nil
}

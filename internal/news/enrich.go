package news

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"sentiment-lens/internal/api"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

// NewsAPI cuts content at ~200 characters and appends "[+1234 chars]".
var truncatedContent = regexp.MustCompile(`\[\+\d+ chars\]\s*$`)

// articleSelectors are the containers commonly holding article body text.
const articleSelectors = "article, div.article-body, div.content-body, div.story-content, div.caas-body, main"

// ContentEnricher decorates a NewsSource, replacing truncated content with
// the full text scraped from the article page.
type ContentEnricher struct {
	source  interfaces.NewsSource
	timeout time.Duration
	limiter *RateLimiter
	fetch   func(ctx context.Context, articleURL string) (string, error)
}

var _ interfaces.NewsSource = (*ContentEnricher)(nil)

func NewContentEnricher(source interfaces.NewsSource, timeout time.Duration, limiter *RateLimiter) *ContentEnricher {
	e := &ContentEnricher{source: source, timeout: timeout, limiter: limiter}
	e.fetch = e.fetchArticleContent
	return e
}

func (e *ContentEnricher) Name() string { return e.source.Name() }

func (e *ContentEnricher) FetchArticles(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	items, err := e.source.FetchArticles(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if !needsEnrichment(items[i]) {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return items, nil
		}
		full, err := e.fetch(ctx, items[i].URL)
		if err != nil {
			logger.Debug(ctx, "Article enrichment failed", "url", items[i].URL, "error", err)
			continue
		}
		if len(full) > len(strings.TrimSpace(truncatedContent.ReplaceAllString(items[i].Content, ""))) {
			items[i].Content = full
		}
	}
	return items, nil
}

func needsEnrichment(item types.NewsItem) bool {
	return item.URL != "" && (item.Content == "" || truncatedContent.MatchString(item.Content))
}

// fetchArticleContent joins the paragraphs of the first article container.
func (e *ContentEnricher) fetchArticleContent(ctx context.Context, articleURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(api.BrowserHeaders()["User-Agent"]),
	)
	if e.timeout > 0 {
		c.SetRequestTimeout(e.timeout)
	}

	var content string
	c.OnHTML(articleSelectors, func(el *colly.HTMLElement) {
		if content != "" {
			return
		}
		paragraphs := []string{}
		el.ForEach("p", func(_ int, p *colly.HTMLElement) {
			text := strings.Join(strings.Fields(p.Text), " ")
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		content = strings.Join(paragraphs, "\n\n")
	})

	if err := c.Visit(articleURL); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", articleURL, err)
	}
	c.Wait()
	return content, nil
}
